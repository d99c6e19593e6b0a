package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"kabs/internal"
	"kabs/internal/catalog"
	"kabs/internal/config"
	"kabs/internal/connectors"
	gmailconnector "kabs/internal/connectors/gmail"
	imapconnector "kabs/internal/connectors/imap"
	"kabs/internal/engine"
	"kabs/internal/listener"
	"kabs/internal/logging"
	"kabs/internal/pipeline"
	"kabs/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = logger.Sync() }()

	cmd := os.Args[1]
	if cmd == "normalize" {
		runNormalize(os.Args[2:])
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()

	switch cmd {
	case "lines:pull":
		svc := catalog.NewSyncService(db, cfg, logger)
		lines, items, err := svc.Pull(ctx)
		must(err)
		fmt.Printf("price store pulled: lines=%d items=%d\n", lines, items)
	case "lines:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "line name")
		tier := fs.String("tier", "Budget", "Budget|Mid-Range|Premium")
		_ = fs.Parse(os.Args[2:])
		t, err := catalog.ParseTier(*tier)
		must(err)
		line, err := catalog.NewSyncService(db, cfg, logger).AddLine(*name, t)
		must(err)
		fmt.Printf("line added id=%s name=%s tier=%s multiplier=%.2f\n", line.ID, line.Name, line.Tier, line.Multiplier)
	case "lines:list":
		lines, err := db.ListLines()
		must(err)
		table, err := db.LoadPricingTable()
		must(err)
		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"id", "name", "tier", "multiplier", "finish", "shipping", "keys"})
		for _, l := range lines {
			tw.Append([]string{
				l.ID, l.Name, string(l.Tier),
				fmt.Sprintf("%.2f", l.Multiplier),
				fmt.Sprintf("%.1f%%", l.FinishPremium*100),
				fmt.Sprintf("%.1f%%", l.ShippingFactor*100),
				fmt.Sprintf("%d", len(table[l.ID])),
			})
		}
		tw.Render()
	case "lines:remove":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "line id")
		_ = fs.Parse(os.Args[2:])
		must(db.DeleteLine(*id))
		fmt.Printf("line removed id=%s\n", *id)
	case "pricing:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		lineID := fs.String("line", "", "line id")
		file := fs.String("file", "", "price sheet .xlsx")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*lineID) == "" || strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--line and --file are required"))
		}
		n, err := catalog.NewSyncService(db, cfg, logger).ImportSheet(*lineID, *file)
		must(err)
		fmt.Printf("price sheet imported line=%s keys=%d\n", *lineID, n)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		query := fs.String("query", cfg.MailSearchQuery, "provider search query")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, logger)
		result, err := fetch.FetchAndStore(ctx, *label, *query, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d new=%d\n", *provider, result.Fetched, result.Stored, result.New)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "gmail|imap (empty: all)")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg, logger)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed request id=%d labels=%d items=%d lines=%d skipped=%v\n", res.RequestID, res.Labels, res.Items, res.Lines, res.Skipped)
			return
		}
		requests, labels, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending requests=%d labels=%d\n", requests, labels)
	case "mail:listen":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		once := fs.Bool("once", false, "run a single cycle")
		_ = fs.Parse(os.Args[2:])
		s := listener.NewService(db, cfg, logger)
		if *once {
			res, err := s.RunOnce(ctx)
			must(err)
			fmt.Printf("listener cycle fetched=%d new=%d processed=%d exported=%d\n", res.Fetched, res.New, res.Processed, res.Exported)
			return
		}
		must(s.Run(ctx))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		requestID := fs.Int("requestId", 0, "internal quote request id")
		lineID := fs.String("line", "", "line id (default DEFAULT_LINE_ID)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *requestID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--requestId and --out are required"))
		}
		processor := pipeline.NewProcessingService(db, cfg, logger)
		must(processor.ExportRequest(*requestID, *lineID, *out))
		fmt.Printf("exported request %d to %s\n", *requestID, *out)
	case "quote", "compare":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path, or inline text for labels|json|html")
		inType := fs.String("type", "", "labels|json|html|xlsx|pdf|email")
		lineID := fs.String("line", cfg.DefaultLineID, "line id to quote")
		output := fs.String("output", "", "output xlsx path (quote only)")
		client := fs.String("client", "", "client name")
		project := fs.String("project", "", "project name")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *inType == "" {
			must(fmt.Errorf("--input and --type are required"))
		}
		if cmd == "quote" && *output == "" {
			must(fmt.Errorf("--output is required"))
		}

		records, err := pipeline.ExtractCandidatesFromInput(*inType, resolveInput(*inType, *input))
		must(err)
		lines, err := db.ListLines()
		must(err)
		table, err := db.LoadPricingTable()
		must(err)
		comparisons := engine.CompareLines(pipeline.Candidates(records), table, lines, cfg.EngineOptions())

		if cmd == "compare" {
			printComparison(comparisons, cfg)
			return
		}

		info := internal.ProjectInfo{
			DealerName:    cfg.DealerName,
			DealerAddress: cfg.DealerAddress,
			DealerPhone:   cfg.DealerPhone,
			ClientName:    *client,
			ProjectName:   *project,
			Date:          time.Now().Format("2006-01-02"),
		}
		doc, err := pipeline.NewQuoteDocument(info, comparisons, pickLine(comparisons, *lineID), cfg.QuoteRates())
		must(err)
		must(pipeline.ExportQuoteToXLSX(doc, *output))
		logger.Info("quote written", zap.String("line", doc.Line.ID), zap.Int("labels", len(records)), zap.String("output", *output))
		fmt.Printf("quote done line=%s items=%d verified=%d grand_total=%.2f output=%s\n",
			doc.Line.ID, len(doc.Items), doc.Summary.IncludedItems, doc.Summary.GrandTotal, *output)
	default:
		usage()
		os.Exit(1)
	}
}

func runNormalize(args []string) {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	trace := fs.Bool("trace", false, "print every rule step")
	_ = fs.Parse(args)
	for _, raw := range fs.Args() {
		if *trace {
			for _, step := range engine.TraceNormalize(raw) {
				fmt.Printf("%-16s %q\n", step.Rule, step.Output)
			}
		}
		code := engine.Normalize(raw)
		dims := engine.ParseDimensions(code)
		label := ""
		if dims != nil {
			label = fmt.Sprintf("%s %s", dims.Type, engine.DimensionLabel(*dims))
		}
		fmt.Printf("%q -> %s  %s\n", raw, code, label)
	}
}

// resolveInput reads text input types from a file when input names one.
func resolveInput(inputType, input string) string {
	switch inputType {
	case pipeline.InputLabels, pipeline.InputJSON, pipeline.InputHTML:
		if blob, err := os.ReadFile(input); err == nil {
			return string(blob)
		}
	}
	return input
}

// pickLine falls back to the first line when the wanted one is not stored.
func pickLine(comparisons []internal.LineComparison, lineID string) string {
	for _, c := range comparisons {
		if c.Line.ID == lineID {
			return lineID
		}
	}
	return ""
}

func printComparison(comparisons []internal.LineComparison, cfg config.Config) {
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"line", "tier", "verified", "estimate", "missing", "verified total", "grand total"})
	for _, c := range comparisons {
		q := engine.BuildQuote(c.Items, c.Line, cfg.QuoteRates())
		tw.Append([]string{
			c.Line.Name,
			string(c.Line.Tier),
			fmt.Sprintf("%d", c.Stats.Verified),
			fmt.Sprintf("%d", c.Stats.Estimate),
			fmt.Sprintf("%d", c.Stats.Missing),
			fmt.Sprintf("%.2f", c.TotalPrice),
			fmt.Sprintf("%.2f", q.GrandTotal),
		})
	}
	tw.Render()
}

func makeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: kabs <command>")
	fmt.Println("commands:")
	fmt.Println("  lines:pull")
	fmt.Println("  lines:add --name=... --tier=Budget|Mid-Range|Premium")
	fmt.Println("  lines:list")
	fmt.Println("  lines:remove --id=...")
	fmt.Println("  pricing:import --line=... --file=prices.xlsx")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50 [--query=...]")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen [--once]")
	fmt.Println("  export:xlsx --requestId=1 [--line=...] --out=./out/quote.xlsx")
	fmt.Println("  quote --input=... --type=labels|json|html|xlsx|pdf|email [--line=...] --output=...xlsx")
	fmt.Println("  compare --input=... --type=labels|json|html|xlsx|pdf|email")
	fmt.Println("  normalize [--trace] CODE...")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
