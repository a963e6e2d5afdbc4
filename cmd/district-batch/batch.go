package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bezirk_scanner/internal/extraction"
	"bezirk_scanner/internal/lookup"
	"bezirk_scanner/internal/streets"
	"bezirk_scanner/platform/logger"

	"golang.org/x/sync/errgroup"
)

const imageWorkers = 4

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type row struct {
	street   string
	number   string
	district string
}

type batch struct {
	resolver  *streets.Resolver
	table     *lookup.Table
	extractor extraction.Extractor
	log       *logger.Logger
}

func (b *batch) resolve(street, number string) row {
	res := b.resolver.Resolve(streets.Input{Street: street, Number: number, Table: b.table})
	return row{street: res.Name, number: res.Number, district: res.District}
}

// resolveAddresses reads street;number lines. A line without a delimiter is
// a street without a number.
func (b *batch) resolveAddresses(r io.Reader) ([]row, error) {
	var rows []row
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		street, number := splitAddress(line)
		if street == "" {
			continue
		}
		rows = append(rows, b.resolve(street, number))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func splitAddress(line string) (string, string) {
	sep := ","
	if strings.Contains(line, ";") {
		sep = ";"
	}
	street, number, _ := strings.Cut(line, sep)
	return strings.TrimSpace(street), strings.TrimSpace(number)
}

// resolveImages extracts every photo in dir. Photos without a readable sign
// are logged and left out. Output keeps file name order.
func (b *batch) resolveImages(ctx context.Context, dir string) ([]row, error) {
	files, err := listImages(dir)
	if err != nil {
		return nil, err
	}

	results := make([]*row, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageWorkers)

	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			img := extraction.Image{Data: data, MIMEType: imageTypes[strings.ToLower(filepath.Ext(path))]}

			ex, err := b.extractor.Extract(gctx, img)
			if err != nil {
				if extraction.IsCredentialMissing(err) {
					return err
				}
				b.log.Warn("extraction failed", "file", path, logger.Err(err))
				return nil
			}
			if !ex.Detected() {
				b.log.Info("no sign detected", "file", path)
				return nil
			}
			r := b.resolve(ex.Street, ex.Number)
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(results))
	for _, r := range results {
		if r != nil {
			rows = append(rows, *r)
		}
	}
	return rows, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageTypes[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeRows(w *bufio.Writer, rows []row) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s;%s;%s\n", r.street, r.number, r.district); err != nil {
			return err
		}
	}
	return w.Flush()
}
