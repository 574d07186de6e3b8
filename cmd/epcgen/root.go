package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/epcgen/internal/config"
	"github.com/JonMunkholm/epcgen/internal/core"
	"github.com/JonMunkholm/epcgen/internal/csvio"
	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/render"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// usageError marks a bad command line, reported with exit status 2.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

type options struct {
	input     string
	from      string
	to        string
	products  string
	locations string
	output    string
	template  string
	mapping   string
	format    string
	sets      []string
	cols      []string

	// now stamps the document creation date.
	now func() time.Time
}

func newRootCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	opts := options{now: time.Now}

	cmd := &cobra.Command{
		Use:           "epcgen",
		Short:         "Generate EPCIS event documents from spreadsheet exports",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && opts.template != "" {
				opts.format = config.FormatTemplate
			}
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, opts, cmd.Flags().Changed("mapping"), cmd.OutOrStdout(), log)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "CSV of simple events, one event per row")
	f.StringVarP(&opts.from, "from", "f", "", "CSV of transformation inputs (requires --to)")
	f.StringVarP(&opts.to, "to", "t", "", "CSV of transformation outputs, grouped by purchase order (requires --from)")
	f.StringVarP(&opts.products, "products", "p", "", "products reference CSV, keyed by "+epc.ColumnMaterial)
	f.StringVarP(&opts.locations, "locations", "l", "", "locations reference CSV, keyed by "+epc.ColumnLocation)
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&opts.template, "template", "m", "", "text/template file used to render the contexts")
	f.StringVar(&opts.mapping, "mapping", cfg.Input.MappingFile, "JSON or YAML file of ColumnLabels and DefaultValues")
	f.StringVar(&opts.format, "format", cfg.Output.Format, "output format: xml, template or json")
	f.StringArrayVar(&opts.sets, "set", nil, "default value override, key=value (repeatable)")
	f.StringArrayVar(&opts.cols, "col", nil, "column label override, key=label (repeatable)")

	return cmd
}

func (o *options) validate() error {
	simple := o.input != ""
	transform := o.from != "" || o.to != ""

	switch {
	case simple && transform:
		return usagef("--input cannot be combined with --from/--to")
	case !simple && !transform:
		return usagef("either --input or --from and --to is required")
	case transform && (o.from == "" || o.to == ""):
		return usagef("--from and --to must be given together")
	}

	o.format = strings.ToLower(o.format)
	switch o.format {
	case config.FormatXML, config.FormatJSON:
	case config.FormatTemplate:
		if o.template == "" {
			return usagef("--format template requires --template")
		}
	default:
		return usagef("unknown --format %q (want xml, template or json)", o.format)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, opts options, mappingExplicit bool, stdout io.Writer, log *slog.Logger) error {
	enc, err := csvio.Encoding(cfg.Input.Encoding)
	if err != nil {
		return err
	}
	reader := &csvio.Reader{Encoding: enc, Logger: log}

	resolver, err := loadResolver(cfg, opts, mappingExplicit, log)
	if err != nil {
		return err
	}

	tables, err := loadTables(reader, opts, log)
	if err != nil {
		return err
	}

	// The template is parsed before any input is read.
	var component func([]core.Context) templ.Component
	created := opts.now()
	switch opts.format {
	case config.FormatTemplate:
		tmpl, err := render.LoadTemplate(opts.template)
		if err != nil {
			return err
		}
		component = func(c []core.Context) templ.Component { return render.Template(tmpl, created, c) }
	case config.FormatJSON:
		component = func(c []core.Context) templ.Component { return render.JSON(c, cfg.Output.IndentJSON) }
	default:
		component = func(c []core.Context) templ.Component { return render.Document(created, c) }
	}

	reg := metrics.NewRegistry()
	svc := core.NewService(core.Options{
		Resolver:        resolver,
		Tables:          tables,
		Logger:          log,
		Metrics:         reg,
		EventTimePolicy: cfg.TimePolicy(),
		Grouping:        cfg.Grouping(),
	})

	var contexts []core.Context
	if opts.input != "" {
		records, err := reader.ReadFile(opts.input)
		if err != nil {
			return err
		}
		contexts = svc.Simple(records)
	} else {
		fromRecs, err := reader.ReadFile(opts.from)
		if err != nil {
			return err
		}
		toRecs, err := reader.ReadFile(opts.to)
		if err != nil {
			return err
		}
		contexts = svc.Transform(fromRecs, toRecs)
	}

	if err := writeOutput(ctx, opts.output, stdout, component(contexts)); err != nil {
		return err
	}
	log.Info("wrote event document",
		"contexts", len(contexts), "format", opts.format, "output", outputName(opts.output))

	if cfg.Output.MetricsFile != "" {
		if err := reg.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		log.Debug("wrote metrics", "path", cfg.Output.MetricsFile)
	}
	return nil
}

// loadResolver builds the field resolver from the mapping file and the
// overrides. A missing mapping file is only an error when it was asked for.
func loadResolver(cfg *config.Config, opts options, explicit bool, log *slog.Logger) (*schema.Resolver, error) {
	mapping, err := config.LoadMapping(opts.mapping)
	switch {
	case err == nil:
		log.Debug("loaded mapping file", "path", opts.mapping)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		log.Info("no mapping file, reading columns by field name", "path", opts.mapping)
		mapping = nil
	default:
		return nil, err
	}

	resolver := mapping.Resolver(log)
	config.Overrides{
		Columns:  append(append([]string{}, cfg.Input.Columns...), opts.cols...),
		Defaults: append(append([]string{}, cfg.Input.Defaults...), opts.sets...),
	}.Apply(resolver, log)
	return resolver, nil
}

func loadTables(reader *csvio.Reader, opts options, log *slog.Logger) (epc.Tables, error) {
	var tables epc.Tables
	var err error

	if opts.products != "" {
		if tables.Products, err = reader.LoadTable(opts.products, epc.ColumnMaterial); err != nil {
			return tables, fmt.Errorf("load products: %w", err)
		}
	} else {
		log.Warn("no products table given, only URN material codes will resolve")
	}

	if opts.locations != "" {
		if tables.Locations, err = reader.LoadTable(opts.locations, epc.ColumnLocation); err != nil {
			return tables, fmt.Errorf("load locations: %w", err)
		}
	} else {
		log.Warn("no locations table given, only URN location codes will resolve")
	}

	return tables, nil
}

// writeOutput renders c into the file at path, or into stdout when path is
// empty.
func writeOutput(ctx context.Context, path string, stdout io.Writer, c templ.Component) error {
	if path == "" {
		return c.Render(ctx, stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := c.Render(ctx, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
