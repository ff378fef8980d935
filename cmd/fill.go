package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/browser"
	"github.com/spigell/autofiller/internal/dom"
	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/messaging"
	"github.com/spigell/autofiller/internal/remote"
	"github.com/spigell/autofiller/internal/selection"
	"github.com/spigell/autofiller/internal/session"
)

const (
	PromptYes    = "Yes"
	PromptNo     = "No"
	PromptCancel = "Cancel"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Capture an application form, resolve values for it and fill it",
	Run: func(cmd *cobra.Command, _ []string) {
		fill(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().String("file", "", "HTML file with the application form")
	fillCmd.Flags().String("url", "", "address of the application page, opened in a browser")
	fillCmd.Flags().Bool("select", false, "choose the container with the form fields interactively")
	fillCmd.Flags().StringP("output", "o", "", "write the filled page to this file")
	fillCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before filling")

	fillCmd.MarkFlagsMutuallyExclusive("file", "url")
	fillCmd.MarkFlagsOneRequired("file", "url")
}

func fill(cmd *cobra.Command) {
	logger, config := setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, page := loadPage(ctx, cmd, config, logger)
	if page != nil {
		defer page.Close()
	}

	store, err := openProfiles(config.Profile)
	if err != nil {
		logger.Fatal("opening profile", zap.Error(err))
	}

	resolver, err := remote.New(config.Resolver.URL, config.Resolver.Timeout, logger)
	if err != nil {
		logger.Fatal("configuring resolver", zap.Error(err))
	}

	background := messaging.NewBackgroundRouter(messaging.BackgroundDeps{
		Resolver: resolver,
		Profiles: store,
		Popup:    session.LogSink{Logger: logger.Named("status")},
		Logger:   logger,
	})
	out := messaging.Local{Router: background}
	sink := messaging.StatusForwarder{Out: out, Logger: logger}

	orch, err := session.New(session.Deps{
		Document:   doc,
		Resolver:   messaging.Bridge{Router: background},
		Profiles:   store,
		Sink:       sink,
		Logger:     logger,
		Categories: config.Fill.Categories,
	})
	if err != nil {
		logger.Fatal("creating session", zap.Error(err))
	}

	content := messaging.NewContentRouter(doc, orch, sink, out, logger)
	tracker := browser.Track(doc)
	defer tracker.Stop()

	if flagBool(cmd, "select") {
		if !selectContainer(ctx, content, doc, logger) {
			logger.Info("exiting", zap.String("reason", "container selection cancelled"))
			return
		}
	} else {
		send(ctx, content, messaging.Message{Type: messaging.CaptureForm}, logger)
	}

	snapshot, mapping, ok := orch.Snapshot()
	if !ok {
		logger.Fatal("exiting", zap.String("reason", "form was not captured"))
	}

	printValues(cmd.OutOrStdout(), snapshot, mapping, config.Fill.Categories)

	if !flagBool(cmd, "yes") {
		confirm := promptui.Select{Label: "Fill the form?", Items: []string{PromptYes, PromptNo}}
		_, action, err := confirm.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	resp := send(ctx, content, messaging.Message{Type: messaging.FillForm}, logger)
	if resp.Report != nil {
		pretty, err := json.MarshalIndent(resp.Report, "", "  ")
		if err != nil {
			logger.Fatal("encoding report", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	}

	if page != nil {
		changes, err := tracker.Changes()
		if err != nil {
			logger.Fatal("collecting changes", zap.Error(err))
		}
		applied, err := page.Apply(changes)
		if err != nil {
			logger.Fatal("updating the live page", zap.Error(err))
		}
		logger.Info("live page updated", zap.Int("controls", applied))
	}

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := writeDocument(doc, output); err != nil {
			logger.Fatal("writing output", zap.Error(err))
		}
		logger.Info("filled page written", zap.String("file", output))
	}

	if !resp.Success {
		logger.Fatal("exiting", zap.String("reason", resp.Error))
	}
}

func loadPage(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*dom.Document, *browser.Page) {
	if url := cmd.Flag("url").Value.String(); url != "" {
		page, err := browser.Open(ctx, url, config.Browser, logger)
		if err != nil {
			logger.Fatal("opening page", zap.Error(err))
		}

		doc, err := page.Document()
		if err != nil {
			_ = page.Close()
			logger.Fatal("reading page", zap.Error(err))
		}

		return doc, page
	}

	path := cmd.Flag("file").Value.String()
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("opening page", zap.Error(err))
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	doc, err := dom.Parse(f, "file://"+filepath.ToSlash(abs))
	if err != nil {
		logger.Fatal("reading page", zap.Error(err))
	}

	return doc, nil
}

// selectContainer runs the container selection with a terminal list standing in for
// the pointer. It reports whether a container was committed.
func selectContainer(ctx context.Context, content *messaging.ContentRouter, doc *dom.Document, logger *zap.Logger) bool {
	candidates := selection.Candidates(doc)
	if len(candidates) == 0 {
		logger.Fatal("exiting", zap.String("reason", "no element on the page holds form fields"))
	}

	send(ctx, content, messaging.Message{Type: messaging.StartContainerSelection}, logger)

	items := make([]string, 0, len(candidates)+1)
	for _, el := range candidates {
		items = append(items, fmt.Sprintf("%s (%d fields)", el.Describe(), len(form.Eligible(el))))
	}
	items = append(items, PromptCancel)

	choose := promptui.Select{
		Label: "Choose the container with the form fields",
		Items: items,
		Size:  10,
	}

	i, _, err := choose.Run()
	if err != nil || i >= len(candidates) {
		doc.DispatchEvent(&dom.Event{Kind: dom.EventKeyDown, Key: "Escape"})
		return false
	}

	el := candidates[i]
	doc.DispatchEvent(&dom.Event{Kind: dom.EventMouseMove, Target: el})
	doc.DispatchEvent(&dom.Event{Kind: dom.EventClick, Target: el})

	return true
}

func send(ctx context.Context, r messaging.Router, msg messaging.Message, logger *zap.Logger) messaging.Response {
	reply, err := r.Dispatch(ctx, msg)
	if err != nil {
		logger.Fatal("dispatching message", zap.String("type", string(msg.Type)), zap.Error(err))
	}

	resp, err := reply.Wait(ctx)
	if err != nil {
		logger.Fatal("waiting for reply", zap.String("type", string(msg.Type)), zap.Error(err))
	}
	if !resp.Success && resp.Report == nil && msg.Type != messaging.FillForm {
		logger.Fatal("exiting", zap.String("type", string(msg.Type)), zap.String("reason", resp.Error))
	}

	return resp
}

// printValues shows the value each captured field will receive.
func printValues(w io.Writer, snapshot form.Snapshot, mapping form.Mapping, categories []form.Category) {
	if categories == nil {
		categories = form.DefaultCategories()
	}
	idx := form.NewIndex(mapping, categories)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tVALUE\tMATCHED BY")
	for _, d := range snapshot.Fields {
		value, source := idx.Lookup(d)
		if d.CannotAutoFill {
			value, source = "-", "skipped"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Key(), d.Type, value, source)
	}
	tw.Flush()
}

func writeDocument(doc *dom.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := doc.Render(f); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	return f.Close()
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
