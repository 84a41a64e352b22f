package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/loader"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load exported Parquet layers into PostgreSQL",
	Long: `Bulk load the Parquet files written by convert --parquet into PostgreSQL/PostGIS.

This stage:
  1. Creates target tables (lanelet_points, lanelet_lines, lanelet_polygons)
  2. Uses COPY for high-speed bulk loading
  3. Optionally creates GIST and feature_id indexes

Tables are loaded in parallel.`,
	Args: cobra.NoArgs,
	Run:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	fs := loadCmd.Flags()
	fs.BoolVar(&cfg.CreateIndexes, "create-indexes", cfg.CreateIndexes, "Create spatial indexes after loading")
	fs.BoolVar(&cfg.DropExisting, "drop-existing", cfg.DropExisting, "Drop existing tables before loading")
	fs.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	fs.IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	fs.StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	fs.StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	fs.StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	fs.StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")
}

func runLoad(cmd *cobra.Command, args []string) {
	log := logger.Get()
	log.Info("Starting PostgreSQL load",
		zap.String("input_dir", cfg.OutputDir),
		zap.String("database", cfg.DBName),
		zap.String("host", cfg.DBHost),
		zap.Int("port", cfg.DBPort),
		zap.String("user", cfg.DBUser),
		zap.String("schema", cfg.DBSchema),
	)

	start := time.Now()

	ldr, err := loader.NewLoader(cmd.Context(), cfg)
	if err != nil {
		exitWithError("failed to create loader", err)
	}
	defer ldr.Close()

	stats, err := ldr.Run(cmd.Context())
	if err != nil {
		ldr.Close()
		exitWithError("load failed", err)
	}

	elapsed := time.Since(start)

	log.Info("Load complete",
		zap.Duration("duration", elapsed.Round(time.Second)),
		zap.Int64("rows", stats.RowsLoaded),
		zap.Float64("throughput_rows_s", float64(stats.RowsLoaded)/elapsed.Seconds()),
	)
}
