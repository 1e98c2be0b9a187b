package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// AuctionServiceClient is a typed client for the auction service
type AuctionServiceClient struct {
	createAuction     *connect.Client[CreateAuctionRequest, CreateAuctionResponse]
	getAuction        *connect.Client[GetAuctionRequest, GetAuctionResponse]
	listAuctions      *connect.Client[ListAuctionsRequest, ListAuctionsResponse]
	placeBid          *connect.Client[PlaceBidRequest, PlaceBidResponse]
	listBids          *connect.Client[ListBidsRequest, ListBidsResponse]
	approveAuction    *connect.Client[ApproveAuctionRequest, ApproveAuctionResponse]
	rejectAuction     *connect.Client[RejectAuctionRequest, RejectAuctionResponse]
	deleteAuction     *connect.Client[DeleteAuctionRequest, DeleteAuctionResponse]
	reconcileAuction  *connect.Client[ReconcileAuctionRequest, ReconcileAuctionResponse]
	getDashboardStats *connect.Client[GetDashboardStatsRequest, GetDashboardStatsResponse]
}

func NewAuctionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuctionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &AuctionServiceClient{
		createAuction:     connect.NewClient[CreateAuctionRequest, CreateAuctionResponse](httpClient, baseURL+CreateAuctionProcedure, opts...),
		getAuction:        connect.NewClient[GetAuctionRequest, GetAuctionResponse](httpClient, baseURL+GetAuctionProcedure, opts...),
		listAuctions:      connect.NewClient[ListAuctionsRequest, ListAuctionsResponse](httpClient, baseURL+ListAuctionsProcedure, opts...),
		placeBid:          connect.NewClient[PlaceBidRequest, PlaceBidResponse](httpClient, baseURL+PlaceBidProcedure, opts...),
		listBids:          connect.NewClient[ListBidsRequest, ListBidsResponse](httpClient, baseURL+ListBidsProcedure, opts...),
		approveAuction:    connect.NewClient[ApproveAuctionRequest, ApproveAuctionResponse](httpClient, baseURL+ApproveAuctionProcedure, opts...),
		rejectAuction:     connect.NewClient[RejectAuctionRequest, RejectAuctionResponse](httpClient, baseURL+RejectAuctionProcedure, opts...),
		deleteAuction:     connect.NewClient[DeleteAuctionRequest, DeleteAuctionResponse](httpClient, baseURL+DeleteAuctionProcedure, opts...),
		reconcileAuction:  connect.NewClient[ReconcileAuctionRequest, ReconcileAuctionResponse](httpClient, baseURL+ReconcileAuctionProcedure, opts...),
		getDashboardStats: connect.NewClient[GetDashboardStatsRequest, GetDashboardStatsResponse](httpClient, baseURL+GetDashboardStatsProcedure, opts...),
	}
}

func (c *AuctionServiceClient) CreateAuction(ctx context.Context, req *connect.Request[CreateAuctionRequest]) (*connect.Response[CreateAuctionResponse], error) {
	return c.createAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) GetAuction(ctx context.Context, req *connect.Request[GetAuctionRequest]) (*connect.Response[GetAuctionResponse], error) {
	return c.getAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) ListAuctions(ctx context.Context, req *connect.Request[ListAuctionsRequest]) (*connect.Response[ListAuctionsResponse], error) {
	return c.listAuctions.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) PlaceBid(ctx context.Context, req *connect.Request[PlaceBidRequest]) (*connect.Response[PlaceBidResponse], error) {
	return c.placeBid.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) ListBids(ctx context.Context, req *connect.Request[ListBidsRequest]) (*connect.Response[ListBidsResponse], error) {
	return c.listBids.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) ApproveAuction(ctx context.Context, req *connect.Request[ApproveAuctionRequest]) (*connect.Response[ApproveAuctionResponse], error) {
	return c.approveAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) RejectAuction(ctx context.Context, req *connect.Request[RejectAuctionRequest]) (*connect.Response[RejectAuctionResponse], error) {
	return c.rejectAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) DeleteAuction(ctx context.Context, req *connect.Request[DeleteAuctionRequest]) (*connect.Response[DeleteAuctionResponse], error) {
	return c.deleteAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) ReconcileAuction(ctx context.Context, req *connect.Request[ReconcileAuctionRequest]) (*connect.Response[ReconcileAuctionResponse], error) {
	return c.reconcileAuction.CallUnary(ctx, req)
}

func (c *AuctionServiceClient) GetDashboardStats(ctx context.Context, req *connect.Request[GetDashboardStatsRequest]) (*connect.Response[GetDashboardStatsResponse], error) {
	return c.getDashboardStats.CallUnary(ctx, req)
}
