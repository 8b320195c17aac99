package till

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"till-go/internal/model"
)

// Importer ingests externally authored inventory files into the local
// store and produces inventory snapshot exports in the other direction.
type Importer struct {
	store      Store
	remote     RemoteSnapshots
	companyKey string
	gateway    Gateway
	mirror     Mirror
	exportDir  string // private storage fallback for exports
	clock      Clock
	idgen      IDGenerator
	logger     Logger
}

func NewImporter(store Store, remote RemoteSnapshots, companyKey string, gateway Gateway, mirror Mirror, exportDir string, clock Clock, idgen IDGenerator, logger Logger) *Importer {
	return &Importer{
		store:      store,
		remote:     remote,
		companyKey: companyKey,
		gateway:    gateway,
		mirror:     mirror,
		exportDir:  exportDir,
		clock:      clock,
		idgen:      idgen,
		logger:     logger,
	}
}

// ImportResult is returned to the caller so it can build a specific
// confirmation message.
type ImportResult struct {
	Imported int
	FileName string
}

// ImportFromFile reads an inventory file (JSON first, CSV fallback),
// normalizes it and replaces the product collection in one transaction.
// Either all rows are replaced or none are.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	data, err := i.readSource(ctx, path)
	if err != nil {
		return nil, err
	}

	products, err := ParseProducts(data, i.idgen)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyBackup)
	}

	if err := i.store.ReplaceProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("applying imported products: %w", err)
	}

	i.logger.Info("inventory imported", "file", filepath.Base(path), "count", len(products))
	return &ImportResult{Imported: len(products), FileName: filepath.Base(path)}, nil
}

// readSource reads the import file from the local filesystem, or through
// the storage gateway when the path points into a granted location.
func (i *Importer) readSource(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	if i.gateway.Available() {
		data, gerr := i.gateway.ReadFile(ctx, path)
		if gerr == nil {
			return data, nil
		}
		i.logger.Debug("gateway read failed", "path", path, "error", gerr)
	}
	return nil, fmt.Errorf("import file %s: %w", path, ErrNotFound)
}

// ParseProducts parses an inventory payload into canonical products.
// Accepted JSON shapes: a bare array of product objects, {"products":[..]},
// or {"payload":{"products":[..]}}. Anything else falls back to CSV with a
// header row. Rows that fail normalization are dropped; a structural
// failure of both parsers is ErrParse.
func ParseProducts(data []byte, idgen IDGenerator) ([]model.Product, error) {
	raws, ok := parseJSONProducts(data)
	if !ok {
		var err error
		raws, err = parseCSVProducts(data)
		if err != nil {
			return nil, err
		}
	}

	var products []model.Product
	for _, raw := range raws {
		p, err := NormalizeProduct(raw, idgen)
		if err != nil {
			continue // invalid row, silently dropped
		}
		products = append(products, p)
	}
	return products, nil
}

func parseJSONProducts(data []byte) ([]RawProduct, bool) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, false
	}

	items, ok := productArray(decoded)
	if !ok {
		return nil, false
	}

	raws := make([]RawProduct, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		raws = append(raws, rawFromJSONObject(obj))
	}
	return raws, true
}

// productArray probes the accepted JSON document shapes.
func productArray(decoded any) ([]any, bool) {
	if arr, ok := decoded.([]any); ok {
		return arr, true
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, false
	}
	if arr, ok := obj["products"].([]any); ok {
		return arr, true
	}
	if payload, ok := obj["payload"].(map[string]any); ok {
		if arr, ok := payload["products"].([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

func parseCSVProducts(data []byte) ([]RawProduct, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // rows may be ragged; columns resolve by header

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	header := make(map[string]int, len(rows[0]))
	for idx, col := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = idx
	}
	if _, ok := header["name"]; !ok {
		return nil, fmt.Errorf("%w: csv has no name column", ErrParse)
	}

	raws := make([]RawProduct, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raws = append(raws, rawFromCSVRow(header, row))
	}
	return raws, nil
}

// ExportSnapshot builds a version-2 inventory snapshot document from the
// current dataset and writes it to the user-granted external directory,
// falling back to private storage. A freshly fetched remote copy is
// preferred when reachable; the document's source field records which one
// was used. A copy is mirrored to remote object storage best-effort.
func (i *Importer) ExportSnapshot(ctx context.Context, fileName string) (*model.ExportReceipt, error) {
	products, source := i.exportProducts(ctx)

	doc := model.SnapshotFile{
		Version:      model.SnapshotFileVersion,
		ExportedAt:   i.clock.Now().UTC(),
		Source:       source,
		ProductCount: len(products),
		Products:     products,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot document: %w", err)
	}

	if fileName == "" {
		fileName = fmt.Sprintf("inventory-%s.json", doc.ExportedAt.Format("20060102T150405Z"))
	}

	uri, location, err := i.writeExport(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	advisory(i.logger, "mirror upload", func() error {
		return i.mirror.Upload(ctx, fileName, data)
	})

	receipt := &model.ExportReceipt{
		FileName: fileName,
		SavedAt:  doc.ExportedAt,
		URI:      uri,
		Location: location,
	}
	if raw, err := json.Marshal(receipt); err == nil {
		if serr := i.store.SetSetting(ctx, SettingLastExport, string(raw)); serr != nil {
			i.logger.Warn("persisting export receipt", "error", serr)
		}
	}

	i.logger.Info("inventory exported", "file", fileName, "source", source, "location", location)
	return receipt, nil
}

// exportProducts picks the freshest reachable product set: the remote
// snapshot when one exists, otherwise the local dataset.
func (i *Importer) exportProducts(ctx context.Context) ([]model.Product, string) {
	if snap, err := i.remote.Fetch(ctx, i.companyKey); err == nil && snap != nil {
		var ds model.Dataset
		if jerr := json.Unmarshal(snap.Payload, &ds); jerr == nil {
			return ds.Products, "remote"
		}
		i.logger.Warn("remote snapshot payload undecodable, exporting local copy")
	} else if err != nil {
		i.logger.Debug("remote unreachable, exporting local copy", "error", err)
	}

	ds, err := i.store.ReadDataset(ctx)
	if err != nil {
		i.logger.Warn("reading local dataset for export", "error", err)
		return nil, "local"
	}
	return ds.Products, "local"
}

// writeExport tries the external directory first. Hosts without the
// capability, and users who decline the grant, get the private fallback.
func (i *Importer) writeExport(ctx context.Context, fileName string, data []byte) (uri, location string, err error) {
	uri, err = SaveExternal(ctx, i.gateway, fileName, "application/json", data)
	if err == nil {
		return uri, "external", nil
	}
	if !errors.Is(err, ErrCapabilityUnavailable) && !errors.Is(err, ErrPermissionDenied) {
		return "", "", fmt.Errorf("writing export: %w", err)
	}
	if errors.Is(err, ErrPermissionDenied) {
		i.logger.Info("external save declined, using private storage")
	}

	if err := os.MkdirAll(i.exportDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(i.exportDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing export: %w", err)
	}
	return path, "private", nil
}
