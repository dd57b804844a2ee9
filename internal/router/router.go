package router

import (
	"net/http"

	"github.com/senyabanana/pharma-bid-service/internal/handlers"
	"github.com/senyabanana/pharma-bid-service/internal/notifier"
)

func InitRoutes(
	requestHandler *handlers.RequestHandler,
	bidHandler *handlers.BidHandler,
	orderHandler *handlers.OrderHandler,
	cartHandler *handlers.CartHandler,
	marginHandler *handlers.MarginHandler,
	wsHandler *notifier.WSHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)

	mux.HandleFunc("/api/requests/new", requestHandler.CreateRequests)
	mux.HandleFunc("/api/requests", requestHandler.GetActiveRequests)
	mux.HandleFunc("/api/requests/my", requestHandler.GetMyRequests)
	mux.HandleFunc("/api/requests/{requestId}/cancel", requestHandler.CancelRequest)

	mux.HandleFunc("/api/bids/new", bidHandler.CreateBid)
	mux.HandleFunc("/api/bids/my", bidHandler.GetMyBids)
	mux.HandleFunc("/api/bids/{requestId}/list", bidHandler.GetRequestBids)
	mux.HandleFunc("/api/bids/{bidId}/cancel", bidHandler.CancelBid)

	mux.HandleFunc("/api/orders/new", orderHandler.CreateOrder)
	mux.HandleFunc("/api/orders/bulk", orderHandler.BulkCreateOrders)
	mux.HandleFunc("/api/orders/my", orderHandler.GetMyOrders)

	mux.HandleFunc("GET /api/cart", cartHandler.GetCart)
	mux.HandleFunc("PUT /api/cart/items", cartHandler.PutItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", cartHandler.DeleteItem)
	mux.HandleFunc("PUT /api/cart/sync", cartHandler.SyncCart)

	mux.HandleFunc("/api/margins", marginHandler.GetMargins)

	mux.HandleFunc("/ws", wsHandler.HandleWS)

	return mux
}
