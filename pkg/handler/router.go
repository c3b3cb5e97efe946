package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/pkg/middle"
)

// NewRouter wires the read-only API. Every route goes through request-id
// tagging and request logging.
func NewRouter(dbctx *DBContext, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	mux.HandleFunc("GET /api/v1/health", dbctx.HealthCheck)
	mux.HandleFunc("GET /api/v1/genomes", dbctx.Genomes)
	mux.HandleFunc("GET /api/v1/search", dbctx.Search)
	mux.HandleFunc("GET /api/v1/cluster/by-gene", dbctx.ClusterByGene)
	mux.HandleFunc("GET /api/v1/cluster/{cluster_id}", dbctx.ClusterByID)

	return middle.Chain(mux,
		middle.RequestIDMiddleware(log),
		middle.LoggingMiddleware(log),
	)
}
