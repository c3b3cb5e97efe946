package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/db"
	"github.com/yumyai/straincomp/pkg/middle"
)

func loggerFrom(r *http.Request) *zap.Logger {
	if l := middle.LoggerFrom(r.Context()); l != nil {
		return l
	}
	return logger.Logger()
}

// ClusterByID serves GET /api/v1/cluster/{cluster_id}.
func (dbctx *DBContext) ClusterByID(w http.ResponseWriter, r *http.Request) {
	clusterID := r.PathValue("cluster_id")

	res, err := db.GetCluster(r.Context(), dbctx.DB, clusterID)
	switch {
	case errors.Is(err, db.ErrClusterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		loggerFrom(r).Error("Query cluster", zap.String("cluster_id", clusterID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClusterByGene serves GET /api/v1/cluster/by-gene?genome_id=..&gene_id=..
// and returns every cluster holding that gene.
func (dbctx *DBContext) ClusterByGene(w http.ResponseWriter, r *http.Request) {
	genome := r.URL.Query().Get("genome_id")
	gene := r.URL.Query().Get("gene_id")
	if genome == "" || gene == "" {
		writeError(w, http.StatusBadRequest, "genome_id and gene_id are required")
		return
	}

	loggerFrom(r).Debug("Searching for", zap.String("genome", genome), zap.String("gene", gene))

	ids, err := db.GetClusterID(r.Context(), dbctx.DB, genome, gene)
	if err != nil {
		loggerFrom(r).Error("Query cluster ids", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusNotFound, "no cluster for "+genome+"/"+gene)
		return
	}

	clusters := make([]*db.Cluster, 0, len(ids))
	for _, id := range ids {
		c, err := db.GetCluster(r.Context(), dbctx.DB, id)
		if err != nil {
			loggerFrom(r).Error("Query cluster", zap.String("cluster_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		clusters = append(clusters, c)
	}
	writeJSON(w, http.StatusOK, clusters)
}
