package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/kangaroo"
	"github.com/hupe1980/kangaroo/filter"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/storage"
	"github.com/hupe1980/kangaroo/table"
)

type cli struct {
	configPath  string
	store       string
	format      string
	compression string
	logLevel    string

	cfg Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "kangaroo",
		Short: "CLI tool for kangaroo buckets",
		Long:  `A command-line interface for listing, querying and editing the tables of a kangaroo bucket.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.configure(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&c.store, "store", "", "store directory, s3://bucket/prefix or minio://bucket/prefix")
	flags.StringVar(&c.format, "format", "", "storage format: blob, csv or sqlite")
	flags.StringVar(&c.compression, "compression", "", "snapshot compression: none, snappy, lz4, zstd or zlib")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		c.tablesCmd(),
		c.insertCmd(),
		c.findCmd(),
		c.explainCmd(),
		c.deleteCmd(),
		c.indexCmd(),
		c.dropCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.infoCmd(),
	)
	return root
}

func (c *cli) configure(cmd *cobra.Command) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = c.store
	}
	if flags.Changed("format") {
		cfg.Format = c.format
	}
	if flags.Changed("compression") {
		cfg.Compression = c.compression
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	c.cfg = cfg
	return nil
}

// withBucket opens the bucket, runs fn and closes it. If save is set, the
// bucket is dumped after fn succeeds.
func (c *cli) withBucket(ctx context.Context, save bool, fn func(*kangaroo.Bucket) error) error {
	b, err := c.cfg.openBucket(ctx)
	if err != nil {
		return fmt.Errorf("failed to open bucket: %w", err)
	}
	err = fn(b)
	if err == nil && save {
		if err = b.Dump(ctx); err != nil {
			err = fmt.Errorf("failed to save bucket: %w", err)
		}
	}
	return errors.Join(err, b.Close())
}

func lookupTable(b *kangaroo.Bucket, name string) (*table.Table, error) {
	t, ok := b.Table(name)
	if !ok {
		return nil, &kangaroo.NotFoundError{Kind: "table", Name: name}
	}
	return t, nil
}

func parseFilters(exprs []string) ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := filter.ParseExpr(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (c *cli) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with row counts and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBucket(cmd.Context(), false, func(b *kangaroo.Bucket) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TABLE\tROWS\tINDEXES")
				for _, t := range b.Tables() {
					fmt.Fprintf(w, "%s\t%d\t%s\n", t.Name(), t.Len(), strings.Join(t.Indexes(), ","))
				}
				return w.Flush()
			})
		},
	}
}

func (c *cli) insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <field=value>...",
		Short: "Insert a row",
		Long:  `Insert a row. Values are parsed as JSON when possible and kept as strings otherwise.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make([]record.Field, 0, len(args)-1)
			for _, arg := range args[1:] {
				name, text, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return fmt.Errorf("invalid field %q: expected field=value", arg)
				}
				fields = append(fields, record.F(name, record.ParseText(text)))
			}

			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				row := b.GetOrCreateTable(args[0]).InsertFields(fields...)
				return printRow(cmd, row)
			})
		},
	}
}

func printRow(cmd *cobra.Command, row *table.Row) error {
	data, err := row.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func (c *cli) findCmd() *cobra.Command {
	var one bool

	cmd := &cobra.Command{
		Use:   "find <table> [field__op=value]...",
		Short: "Print matching rows as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			return c.withBucket(cmd.Context(), false, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				if one {
					row, ok := t.Find(filters...)
					if !ok {
						return nil
					}
					return printRow(cmd, row)
				}
				for _, row := range t.FindAll(filters...) {
					if err := printRow(cmd, row); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&one, "one", false, "print only the first match")
	return cmd
}

func (c *cli) explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <table> [field__op=value]...",
		Short: "Show how a query would be answered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			return c.withBucket(cmd.Context(), false, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Explain(filters...))
				return err
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> [field__op=value]...",
		Short: "Delete matching rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				rows := t.FindAll(filters...)
				for _, row := range rows {
					if err := t.DeleteRow(row); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows\n", len(rows))
				return err
			})
		},
	}
}

func (c *cli) indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <table> <field>",
		Short: "Index a field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				t.AddIndex(args[1])
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "drop <table> <field>",
		Short: "Remove the index on a field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				t.DeleteIndex(args[1])
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Delete a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				return b.DeleteTable(args[0])
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Write a table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cfg.storageOptions()
			if err != nil {
				return err
			}
			return c.withBucket(cmd.Context(), false, func(b *kangaroo.Bucket) error {
				t, err := lookupTable(b, args[0])
				if err != nil {
					return err
				}
				if to == "" || to == "-" {
					return storage.ExportCSV(cmd.OutOrStdout(), t.Snapshot(), opts...)
				}
				f, err := os.Create(to)
				if err != nil {
					return err
				}
				if err := storage.ExportCSV(f, t.Snapshot(), opts...); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var (
		from    string
		replace bool
		indexes []string
	)

	cmd := &cobra.Command{
		Use:   "import <table>",
		Short: "Create a table from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cfg.storageOptions()
			if err != nil {
				return err
			}
			f, err := os.Open(from)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			snap, err := storage.ImportCSV(f, args[0], opts...)
			if err != nil {
				return err
			}
			snap.Indexes = append(snap.Indexes, indexes...)

			return c.withBucket(cmd.Context(), true, func(b *kangaroo.Bucket) error {
				if replace {
					if err := b.DeleteTable(args[0]); err != nil && !errors.Is(err, kangaroo.ErrNotFound) {
						return err
					}
				}
				t := table.Restore(snap)
				if err := b.AddTable(t); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", t.Len(), t.Name())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "CSV file to read")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace an existing table")
	cmd.Flags().StringSliceVar(&indexes, "index", nil, "fields to index")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the current snapshot (blob format)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Format != "" && c.cfg.Format != "blob" {
				return fmt.Errorf("info requires the blob format, got %q", c.cfg.Format)
			}
			store, err := c.cfg.blobStore(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := c.cfg.storageOptions()
			if err != nil {
				return err
			}
			info, err := storage.NewBlobStorage(store, opts...).Inspect(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Name:\t%s\n", info.Name)
			fmt.Fprintf(w, "ID:\t%s\n", info.ID)
			fmt.Fprintf(w, "Created:\t%s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Codec:\t%s\n", info.Codec)
			fmt.Fprintf(w, "Compression:\t%s\n", info.Compression)
			fmt.Fprintf(w, "Sealed:\t%t\n", info.Sealed)
			fmt.Fprintf(w, "Size:\t%d bytes\n", info.Size)
			return w.Flush()
		},
	}
}
