package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

// exportRecord is the row layout of JSON and Parquet exports.
type exportRecord struct {
	Name      string  `json:"name"       parquet:"name"`
	Email     string  `json:"email"      parquet:"email"`
	Timestamp string  `json:"timestamp"  parquet:"timestamp"`
	IPAddress string  `json:"ip_address" parquet:"ip_address"`
	Country   string  `json:"country"    parquet:"country"`
	Region    string  `json:"region"     parquet:"region"`
	City      string  `json:"city"       parquet:"city"`
	Latitude  float64 `json:"lat"        parquet:"lat"`
	Longitude float64 `json:"lon"        parquet:"lon"`
}

func toExportRecord(r store.Record) exportRecord {
	return exportRecord(r)
}

func newExportCmd(open opener) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every subscriber as JSON or Parquet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "parquet" {
				return fmt.Errorf("unknown format %q (json or parquet)", format)
			}
			if format == "parquet" && out == "" {
				return fmt.Errorf("parquet export needs --out")
			}
			return withStore(cmd.Context(), open, func(s store.RecordStore) error {
				w := cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("creating output file: %w", err)
					}
					defer f.Close()
					w = f
				}
				n, err := export(cmd.Context(), s, format, w)
				if err != nil {
					return err
				}
				if out != "" {
					cmd.Printf("exported %d subscribers to %s\n", n, out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or parquet")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout, json only)")
	return cmd
}

func export(ctx context.Context, s store.RecordStore, format string, w io.Writer) (int, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return 0, err
	}
	records := make([]exportRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, toExportRecord(r))
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return 0, fmt.Errorf("writing json: %w", err)
		}
		return len(records), nil
	}

	writer := parquet.NewWriter(w, parquet.SchemaOf(new(exportRecord)))
	for _, r := range records {
		if err := writer.Write(r); err != nil {
			return 0, fmt.Errorf("writing record: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("closing parquet writer: %w", err)
	}
	return len(records), nil
}
