package api

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/floroz/auctionhouse/pkg/auth"
)

// AuctionServiceName is the fully-qualified name of the service
const AuctionServiceName = "auctionhouse.v1.AuctionService"

// Procedure paths
const (
	CreateAuctionProcedure     = "/" + AuctionServiceName + "/CreateAuction"
	GetAuctionProcedure        = "/" + AuctionServiceName + "/GetAuction"
	ListAuctionsProcedure      = "/" + AuctionServiceName + "/ListAuctions"
	PlaceBidProcedure          = "/" + AuctionServiceName + "/PlaceBid"
	ListBidsProcedure          = "/" + AuctionServiceName + "/ListBids"
	ApproveAuctionProcedure    = "/" + AuctionServiceName + "/ApproveAuction"
	RejectAuctionProcedure     = "/" + AuctionServiceName + "/RejectAuction"
	DeleteAuctionProcedure     = "/" + AuctionServiceName + "/DeleteAuction"
	ReconcileAuctionProcedure  = "/" + AuctionServiceName + "/ReconcileAuction"
	GetDashboardStatsProcedure = "/" + AuctionServiceName + "/GetDashboardStats"
)

// NewAuctionServiceHandlerRoutes returns the path prefix of the service and the handler serving it.
// Reads are public; every other procedure requires a bearer token.
func NewAuctionServiceHandlerRoutes(h *AuctionServiceHandler, signer *auth.Signer, opts ...connect.HandlerOption) (string, http.Handler) {
	base := append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	public := append(base, connect.WithInterceptors(auth.NewOptionalAuthInterceptor(signer)))
	private := append(append([]connect.HandlerOption{}, base...), connect.WithInterceptors(auth.NewAuthInterceptor(signer)))

	mux := http.NewServeMux()
	mux.Handle(GetAuctionProcedure, connect.NewUnaryHandler(GetAuctionProcedure, h.GetAuction, public...))
	mux.Handle(ListAuctionsProcedure, connect.NewUnaryHandler(ListAuctionsProcedure, h.ListAuctions, public...))
	mux.Handle(ListBidsProcedure, connect.NewUnaryHandler(ListBidsProcedure, h.ListBids, public...))

	mux.Handle(CreateAuctionProcedure, connect.NewUnaryHandler(CreateAuctionProcedure, h.CreateAuction, private...))
	mux.Handle(PlaceBidProcedure, connect.NewUnaryHandler(PlaceBidProcedure, h.PlaceBid, private...))
	mux.Handle(ApproveAuctionProcedure, connect.NewUnaryHandler(ApproveAuctionProcedure, h.ApproveAuction, private...))
	mux.Handle(RejectAuctionProcedure, connect.NewUnaryHandler(RejectAuctionProcedure, h.RejectAuction, private...))
	mux.Handle(DeleteAuctionProcedure, connect.NewUnaryHandler(DeleteAuctionProcedure, h.DeleteAuction, private...))
	mux.Handle(ReconcileAuctionProcedure, connect.NewUnaryHandler(ReconcileAuctionProcedure, h.ReconcileAuction, private...))
	mux.Handle(GetDashboardStatsProcedure, connect.NewUnaryHandler(GetDashboardStatsProcedure, h.GetDashboardStats, private...))

	return "/" + AuctionServiceName + "/", mux
}
