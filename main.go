package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/straincomp/internal/config"
	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/cluster"
	mydb "github.com/yumyai/straincomp/pkg/db"
	"github.com/yumyai/straincomp/pkg/handler"
	"github.com/yumyai/straincomp/pkg/model"
	"github.com/yumyai/straincomp/pkg/table"
)

const VERSION = "0.1.0"

type step func(ctx context.Context, cfg *config.Run, args []string) error

// cfg is loaded once per invocation by the root command's PersistentPreRunE.
var cfg *config.Run

var rootCmd = &cobra.Command{
	Use:               "straincomp",
	Short:             "Cluster proteins across bacterial strains and tabulate the clusters",
	Version:           VERSION,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Finished")
	},
}

var processCmd = stepCmd("process", "prefix NCBI CDS files, translate them and write strainlist.txt", runProcess)
var clusterCmd = stepCmd("cluster", "remove pseudogenes and cluster proteins with mmseqs2", runCluster)
var nameCmd = stepCmd("name", "name clusters and write cluster_header_info.tab", runName)
var tableCmd = stepCmd("table", "build cluster_table.tab and cluster_hit_count_table.tab", runTable)
var allCmd = stepCmd("all", "cluster, name and table", runAll)
var cogCmd = stepCmd("cog", "add COG assignments to the cluster table", runCOG)
var keggCmd = stepCmd("kegg", "add KEGG KO numbers to the cluster table", runKEGG)
var geneOrderCmd = stepCmd("geneorder", "write the gene-ordered cluster table", runGeneOrder)
var exportCmd = stepCmd("export", "load the cluster table into the gene-table database", runExport)
var serveCmd = stepCmd("serve", "serve the gene-table database over HTTP", runServe)

var trimCmd = &cobra.Command{
	Use:     "trim [strainlist]",
	Short:   "restrict both tables to a strain list (default strainlist.txt)",
	Example: `straincomp trim subset.txt`,
	RunE:    runStep(runTrim),
	Args:    cobra.MaximumNArgs(1),
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "d", "", "project directory (overrides STRAINCOMP_DIR)")
	rootCmd.AddCommand(processCmd, clusterCmd, nameCmd, tableCmd, allCmd, trimCmd,
		cogCmd, keggCmd, geneOrderCmd, exportCmd, serveCmd)
}

func stepCmd(use, short string, run step) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE:  runStep(run),
		Args:  cobra.NoArgs,
	}
}

func runStep(run step) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg, args)
	}
}

// setup loads the configuration and starts the run report for the chosen step.
func setup(cmd *cobra.Command, _ []string) error {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		if err := os.Setenv("STRAINCOMP_DIR", dir); err != nil {
			return err
		}
	}
	c, dotenv, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Establish logger; every entry also lands in the run report.
	if err := os.MkdirAll(filepath.Dir(c.Report), 0o755); err != nil {
		return err
	}
	if err := logger.InitLogger(c.LogLevel, c.Report); err != nil {
		return err
	}
	logger.With(zap.String("run_id", uuid.New().String()), zap.String("step", cmd.Name()))
	if !dotenv {
		logger.Debug("No .env found, using local environment")
	}
	logger.Info("Start:", zap.String("Version", VERSION), zap.String("dir", c.Dir))

	cfg = c
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Step failed", zap.Error(err))
		logger.Sync()
		stop()
		os.Exit(1)
	}
	logger.Sync() // Make sure that the buffered is flushed.
}

func runProcess(_ context.Context, cfg *config.Run, _ []string) error {
	_, err := cluster.Process(cluster.ProcessPaths{
		MasterTable: cfg.MasterTable,
		GenomeDir:   cfg.GenomeDir,
		FnaDir:      cfg.FnaDir,
		FaaDir:      cfg.ProteinDir,
		Pseudogenes: cfg.Pseudogenes,
		StrainList:  cfg.StrainList,
	})
	return err
}

func runCluster(ctx context.Context, cfg *config.Run, _ []string) error {
	if _, _, err := cluster.FilterPseudogenes(cfg.ProteinDir, cfg.PseudoFree); err != nil {
		return err
	}
	m := &cluster.Mmseqs{
		Bin:      cfg.Mmseqs,
		DBDir:    cfg.MmseqsDBDir,
		MinSeqID: cfg.MinSeqID,
		Coverage: cfg.Coverage,
	}
	return m.Cluster(ctx, cfg.PseudoFree, cfg.FlatFasta)
}

func runName(_ context.Context, cfg *config.Run, _ []string) error {
	clusters, err := cluster.ReadFlatClustersFile(cfg.FlatFasta)
	if err != nil {
		return err
	}
	return cluster.WriteNamedClusters(clusters, cfg.ClusterPrefix, cluster.Outputs{
		Summary:         cfg.Summary,
		Representatives: cfg.Representatives,
		HeaderInfo:      cfg.HeaderInfo,
		Metadata:        cfg.Metadata,
	})
}

func runTable(_ context.Context, cfg *config.Run, _ []string) error {
	n, err := table.MakeTables(table.Paths{
		StrainList:    cfg.StrainList,
		HeaderInfo:    cfg.HeaderInfo,
		ClusterTable:  cfg.ClusterTable,
		HitCountTable: cfg.HitCountTable,
	})
	if err != nil {
		return err
	}
	logger.Info("Wrote cluster tables", zap.Int("clusters", n), zap.String("dir", cfg.TablesDir))
	return nil
}

func runAll(ctx context.Context, cfg *config.Run, args []string) error {
	for _, s := range []step{runCluster, runName, runTable} {
		if err := s(ctx, cfg, args); err != nil {
			return err
		}
	}
	return nil
}

func runTrim(_ context.Context, cfg *config.Run, args []string) error {
	list := cfg.StrainList
	if len(args) > 0 {
		list = args[0]
	}
	if err := util.RequireFiles(list); err != nil {
		return err
	}
	strains, err := model.ReadStrainList(list)
	if err != nil {
		return err
	}
	full, err := table.ReadTable(cfg.ClusterTable)
	if err != nil {
		return err
	}
	count, err := table.ReadTable(cfg.HitCountTable)
	if err != nil {
		return err
	}

	tfull, tcount, err := table.Trim(full, count, strains)
	if err != nil {
		return err
	}
	if err := tfull.WriteFile(filepath.Join(cfg.TrimDir, filepath.Base(cfg.ClusterTable))); err != nil {
		return err
	}
	if err := tcount.WriteFile(filepath.Join(cfg.TrimDir, filepath.Base(cfg.HitCountTable))); err != nil {
		return err
	}
	logger.Info("Trimmed tables",
		zap.Int("strains", len(strains)),
		zap.Int("clusters_kept", len(tfull.Rows)),
		zap.Int("clusters_dropped", len(full.Rows)-len(tfull.Rows)))
	return nil
}

func joinStep(cfg *config.Run, lookup string, skip int, out string, join func(*table.Table, *table.Lookup) (*table.Table, error)) error {
	lk, err := table.LoadLookup(lookup, skip)
	if err != nil {
		return err
	}
	t, err := table.ReadTable(cfg.ClusterTable)
	if err != nil {
		return err
	}
	joined, err := join(t, lk)
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.TablesDir, out)
	if err := joined.WriteFile(path); err != nil {
		return err
	}
	logger.Info("Joined annotations", zap.String("from", lookup), zap.String("to", path),
		zap.Int("annotated", len(lk.Values)))
	return nil
}

func runCOG(_ context.Context, cfg *config.Run, _ []string) error {
	return joinStep(cfg, cfg.COGTable, 1, "cluster_table_COG.tab", table.JoinCOG)
}

func runKEGG(_ context.Context, cfg *config.Run, _ []string) error {
	return joinStep(cfg, cfg.KEGGTable, 0, "cluster_table_KEGG.tab", table.JoinKEGG)
}

func runGeneOrder(_ context.Context, cfg *config.Run, _ []string) error {
	t, err := table.ReadTable(cfg.ClusterTable)
	if err != nil {
		return err
	}
	ordered, err := table.GeneOrder(t)
	if err != nil {
		return err
	}
	return ordered.WriteFile(filepath.Join(cfg.TablesDir, "cluster_table_geneordered.tab"))
}

func runExport(ctx context.Context, cfg *config.Run, _ []string) error {
	if err := util.RequireFiles(cfg.StrainList, cfg.HeaderInfo); err != nil {
		return err
	}
	strains, err := model.ReadStrainList(cfg.StrainList)
	if err != nil {
		return err
	}

	cog := make(map[string]string)
	if util.FileExists(cfg.COGTable) {
		lk, err := table.LoadLookup(cfg.COGTable, 1)
		if err != nil {
			return err
		}
		for k, v := range lk.Values {
			if len(v) > 0 {
				cog[k] = v[0]
			}
		}
	} else {
		logger.Info("No COG table, exporting without COG ids", zap.String("path", cfg.COGTable))
	}

	db, err := mydb.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ex, err := mydb.NewExporter(ctx, db)
	if err != nil {
		return err
	}
	defer ex.Rollback()

	if err := ex.AddGenomes(strains); err != nil {
		return err
	}

	in, err := os.Open(cfg.HeaderInfo)
	if err != nil {
		return err
	}
	defer in.Close()

	err = table.ReadClusterRecords(in, func(rec *model.ClusterRecord) error {
		row, err := table.BuildRow(rec, strains)
		if err != nil {
			return err
		}
		return ex.AddRow(row, cog[rec.Name])
	})
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.HeaderInfo, err)
	}
	if err := ex.Commit(); err != nil {
		return err
	}
	logger.Info("Open database on", zap.String("DB_LOC", cfg.Database))
	return nil
}

func runServe(ctx context.Context, cfg *config.Run, _ []string) error {
	if err := util.RequireFiles(cfg.Database); err != nil {
		return err
	}
	db, err := mydb.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Open database on", zap.String("DB_LOC", cfg.Database))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(&handler.DBContext{DB: db}, logger.Logger()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server starting", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
