package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/config"
	"leadprep/internal/crm"
	"leadprep/internal/listener"
	"leadprep/internal/logging"
	"leadprep/internal/pipeline"
	"leadprep/internal/server"
	"leadprep/internal/workbench"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = log.Sync() }()

	processor := pipeline.NewProcessingService(log)

	cmd := os.Args[1]
	switch cmd {
	case "clean", "simplify":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input .csv, .xlsx, .html or .eml path")
		out := fs.String("out", "", "output .csv or .xlsx path, - for stdout")
		name := fs.String("name", "", "file name used for provenance tags (defaults to the input's)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--input and --out are required"))
		}

		upload := readUpload(*input)
		if n := strings.TrimSpace(*name); n != "" {
			if filepath.Ext(n) == "" {
				n += filepath.Ext(*input)
			}
			upload.Name = n
		}
		res, err := processor.Run(pipeline.Operation(cmd), []pipeline.Upload{upload})
		if err != nil {
			must(fmt.Errorf("%s", res.Feedback.Message))
		}
		must(write(res.Table, *out))
		if *out == "-" {
			return
		}
		fmt.Println(res.Feedback.Message)
		fmt.Printf("%s written to %s\n", pipeline.Describe(res.Table), *out)
	case "combine":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output .csv or .xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" || fs.NArg() < 2 {
			must(fmt.Errorf("--out and at least two input files are required"))
		}

		uploads := make([]pipeline.Upload, 0, fs.NArg())
		for _, path := range fs.Args() {
			uploads = append(uploads, readUpload(path))
		}
		res, err := processor.Run(pipeline.OpCombine, uploads)
		if err != nil {
			must(fmt.Errorf("%s (%v)", res.Feedback.Message, err))
		}
		must(write(res.Table, *out))
		if *out != "-" {
			fmt.Println(res.Feedback.Message)
		}
	case "inspect":
		if len(os.Args) < 3 {
			must(fmt.Errorf("at least one input file is required"))
		}
		for _, path := range os.Args[2:] {
			tables, err := pipeline.LoadFile(path)
			must(err)
			for _, t := range tables {
				fmt.Printf("%s: %s format, %s\n", t.Name, pipeline.DetectFormat(t), pipeline.Describe(t))
			}
		}
	case "deliver":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "cleaned or raw lead file")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		must(cfg.Require("GOHIGHLEVEL_API_KEY", cfg.CRMAPIKey))

		res, err := processor.Run(pipeline.OpClean, []pipeline.Upload{readUpload(*input)})
		if err != nil {
			must(fmt.Errorf("%s", res.Feedback.Message))
		}
		records, err := pipeline.Records(res.Table)
		must(err)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		client := crm.NewClient(cfg, log)
		summary, err := client.Deliver(ctx, records)
		fmt.Println(summary.String())
		must(err)
		if summary.Failed > 0 {
			log.Warn("some contacts were not created", zap.Int("failed", summary.Failed))
		}
	case "watch":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		svc := listener.NewService(cfg, processor, crm.NewClient(cfg, log), log)
		must(svc.Run(ctx))
	case "serve":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv := server.New(cfg, workbench.NewStore(), processor, crm.NewClient(cfg, log), log)
		must(srv.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func readUpload(path string) pipeline.Upload {
	blob, err := os.ReadFile(path)
	must(err)
	return pipeline.Upload{Name: filepath.Base(path), Content: blob}
}

// write picks the format from out's extension; "-" prints CSV to stdout.
func write(t *internal.Table, out string) error {
	if out == "-" {
		csvText, err := pipeline.ToCSV(t)
		if err != nil {
			return err
		}
		_, err = fmt.Print(csvText)
		return err
	}
	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		return pipeline.ExportXLSX(t, out)
	}
	return pipeline.WriteCSV(t, out)
}

func usage() {
	fmt.Println("usage: leadprep <command>")
	fmt.Println("commands:")
	fmt.Println("  clean --input=leads_B2C.csv --out=./out/clean.csv [--name=leads_B2B]")
	fmt.Println("  simplify --input=leads.csv --out=./out/addresses.xlsx")
	fmt.Println("  combine --out=./out/combined.csv a.csv b.csv ...")
	fmt.Println("  inspect leads.csv inbox.eml ...")
	fmt.Println("  deliver --input=./out/clean.csv")
	fmt.Println("  watch")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
