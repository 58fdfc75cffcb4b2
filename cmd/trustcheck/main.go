package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/logging"
	"github.com/vantaai/trustserv/patterns"
	"github.com/vantaai/trustserv/trust"
)

var errDuplicateEntries = errors.New("pattern tables contain duplicate entries")

type checkResult struct {
	Content string `json:"content"`
	*trust.AnalysisResult
	Links []string `json:"links"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logrus.Fatal(err)
	}
}

// run - Scores each argument, or each line of stdin when there are none, writing one JSON object per line to stdout.
// Logs go to stderr.
func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	flags := flag.NewFlagSet("trustcheck", flag.ContinueOnError)
	flags.SetOutput(stderr)
	noClassifier := flags.Bool("no-classifier", false, "Score with the pattern tables only, ignoring the configured classifier.")
	validate := flags.Bool("validate", false, "Only load the pattern tables and report duplicate entries.")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logrus.SetOutput(stderr)

	c, err := config.NewInstanceConfig()
	if err != nil {
		return err
	}
	if err = logging.Configure(c.LogLevel, c.LogFormat); err != nil {
		return err
	}

	if *validate {
		tables, err := patterns.LoadFile(c.PatternsFile)
		if err != nil {
			return err
		}
		dupes := tables.Duplicates()
		for _, dupe := range dupes {
			logrus.WithField("entry", dupe).Warn("Duplicate pattern table entry")
		}
		if len(dupes) > 0 {
			return errDuplicateEntries
		}
		logrus.Info("Pattern tables are valid")
		return nil
	}

	var classifier ai.ToxicityClassifier
	if !*noClassifier {
		classifier, err = ai.NewClassifier(c)
		if err != nil {
			return err
		}
		if lazy, ok := classifier.(*ai.LazyClassifier); ok {
			// One-shot runs can't wait for a background load
			if err = lazy.Warm(context.Background()); err != nil {
				return err
			}
		}
	}

	manager, err := trust.NewManager(context.Background(), c.PatternsFile, classifier, trust.ConfigFromInstance(c), nil)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(stdout)
	check := func(content string) error {
		return encoder.Encode(&checkResult{
			Content:        content,
			AnalysisResult: manager.Analyze(context.Background(), content),
			Links:          trust.ExtractURLs(content),
		})
	}

	if flags.NArg() > 0 {
		for _, arg := range flags.Args() {
			if err = check(arg); err != nil {
				return err
			}
		}
		return nil
	}
	return checkLines(stdin, check)
}

// checkLines - Runs fn for every non-blank line of r, stopping at the first error.
func checkLines(r io.Reader, fn func(content string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
