package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/libops/openapi-scopes/internal/extractor"
	"github.com/libops/openapi-scopes/internal/injector"
)

func main() {
	protoDir := flag.String("proto", "", "Directory of proto schema sources")
	openapiFile := flag.String("openapi", "", "Path to OpenAPI YAML document (rewritten in place)")
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing the document")
	verbose := flag.Bool("v", false, "Log operations that match no scope annotation")
	flag.Parse()

	if *protoDir == "" || *openapiFile == "" {
		fmt.Fprintln(os.Stderr, "-proto and -openapi are required")
		os.Exit(1)
	}

	log := logrus.New()
	log.SetOutput(os.Stdout)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	facts, err := extractor.Extract(*protoDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract scope annotations: %v\n", err)
		os.Exit(1)
	}

	log.Infof("extracted %d scope annotations from %s", facts.Len(), *protoDir)
	for _, method := range facts.Methods() {
		fact, _ := facts.Get(method)
		line := fmt.Sprintf("  %s: %s:%s", method, fact.Resource, fact.Level)
		if len(fact.OAuthScopes) > 0 {
			line += fmt.Sprintf(" [%s]", strings.Join(fact.OAuthScopes, ", "))
		}
		log.Info(line)
	}

	doc, err := injector.Load(*openapiFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load openapi document: %v\n", err)
		os.Exit(1)
	}

	report, err := injector.Inject(doc, facts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inject scopes: %v\n", err)
		os.Exit(1)
	}

	for _, op := range report.Updated {
		log.Infof("  %s %s -> %s [%s]", op.Method, op.Path, op.RPC, strings.Join(op.Scopes, ", "))
	}
	for _, op := range report.Unmatched {
		log.Debugf("  no scope annotation for %s", op)
	}
	log.Infof("updated %d operations (%d with no matching annotation)", len(report.Updated), len(report.Unmatched))

	if *dryRun {
		log.Info("dry run: document not written")
		return
	}

	if err := doc.Save(*openapiFile); err != nil {
		fmt.Fprintf(os.Stderr, "save openapi document: %v\n", err)
		os.Exit(1)
	}
	log.Infof("wrote %s", *openapiFile)
}
