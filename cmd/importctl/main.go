// Command importctl checks a spreadsheet against the import rules offline and
// optionally submits it to the backend.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"onduty-admin/internal/batch"
	"onduty-admin/internal/config"
	"onduty-admin/internal/excel"
	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/internal/pipeline"
	"onduty-admin/internal/schema"
	"onduty-admin/internal/submit"

	"github.com/fatih/color"
)

func main() {
	kindFlag := flag.String("kind", "", "entity kind: student, subject or teacher")
	fileFlag := flag.String("file", "", "path to the .xlsx or .xls file")
	submitFlag := flag.Bool("submit", false, "submit accepted rows to the configured backend")
	verbose := flag.Bool("v", false, "log pipeline progress to stderr")
	flag.Parse()

	if *verbose {
		logger.Init("debug", "console")
	} else {
		logger.Discard()
	}

	kind, err := model.ParseEntityKind(*kindFlag)
	if err != nil || *fileFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: importctl -kind student|subject|teacher -file <sheet> [-submit]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		color.Red("Failed to read %s: %v", *fileFlag, err)
		os.Exit(1)
	}

	if *submitFlag {
		os.Exit(runSubmit(kind, data))
	}
	os.Exit(runOffline(kind, data))
}

func runOffline(kind model.EntityKind, data []byte) int {
	rows, err := excel.NewDecoder().Decode(data)
	if err != nil {
		color.Red("Cannot read spreadsheet: %v", err)
		return 1
	}

	validator, err := offlineValidator()
	if err != nil {
		color.Red("Failed to load config: %v", err)
		return 1
	}

	part := batch.NewPartitioner(validator).Partition(kind, rows)
	renderPartition(os.Stdout, kind, part)

	if len(part.Rejected) > 0 {
		return 3
	}
	return 0
}

// offlineValidator applies the configured import rules when a config file is
// present and falls back to the defaults when there is none.
func offlineValidator() (*schema.Validator, error) {
	cfg, err := config.Load()
	if stderrors.Is(err, fs.ErrNotExist) {
		return schema.NewValidator(), nil
	}
	if err != nil {
		return nil, err
	}
	return newValidator(cfg), nil
}

func newValidator(cfg *config.Config) *schema.Validator {
	return schema.NewValidator(schema.WithBatchRange(cfg.Import.MinBatchYear, cfg.Import.BatchYearLookahead))
}

func runSubmit(kind model.EntityKind, data []byte) int {
	cfg, err := config.Load()
	if err != nil {
		color.Red("Failed to load config: %v", err)
		return 1
	}

	orchestrator := pipeline.NewOrchestrator(
		excel.NewDecoder(),
		batch.NewPartitioner(newValidator(cfg)),
		submit.NewClient(&cfg.Backend, submit.NewSessionProvider(&cfg.Backend)),
	)

	result, err := orchestrator.Run(context.Background(), kind, data)
	if result != nil {
		renderResult(os.Stdout, result)
	}
	if err != nil {
		color.Red("Upload failed: %v", err)
		return 1
	}
	return 0
}
