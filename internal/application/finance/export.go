package finance

import (
	"context"
	"fmt"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/export"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const statementTitle = "Financial Statement"

// Export renders every invoice, expense and sale of w as one statement
// in format csv, pdf or excel
func (f *Facade) Export(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (export.File, error) {
	if f.exporter == nil {
		return export.File{}, shared.ErrInvalidState.WithMessage("Export is not configured")
	}
	ef, err := export.ParseFormat(format)
	if err != nil {
		return export.File{}, shared.ErrInvalidInput.WithMessage(err.Error())
	}

	txs, err := f.aggregator.Transactions(ctx, p, w)
	if err != nil {
		return export.File{}, err
	}
	rows := make([]export.Row, len(txs))
	for i, tx := range txs {
		rows[i] = export.Row{
			Type:        string(tx.Type),
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
			Currency:    tx.Currency.String(),
			Status:      tx.Status,
		}
	}

	file, err := f.exporter.Export(ctx, ef, export.Document{
		Title:       statementTitle,
		Currency:    f.aggregator.Config().Currency.String(),
		From:        w.From,
		To:          w.To,
		GeneratedAt: f.today(),
		Rows:        rows,
	})
	if err != nil {
		logger.Enrich(ctx, f.logger).Error("failed to render export",
			zap.String("format", string(ef)),
			zap.Int("rows", len(rows)),
			zap.Error(err),
		)
		return export.File{}, err
	}
	f.metrics.RecordExport(ctx, string(ef))
	return file, nil
}

// ArchiveExport renders the statement, stores it under
// exports/<tenant>/<year>/ and returns a presigned download link
func (f *Facade) ArchiveExport(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (*ArchiveResponse, error) {
	if f.archive == nil {
		return nil, shared.ErrInvalidState.WithMessage("Export archive storage is not configured")
	}
	file, err := f.Export(ctx, p, format, w)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s/%s", p.TenantID, f.today().Format("2006"), file.Name)
	if err := f.archive.Put(ctx, key, file.ContentType, file.Data); err != nil {
		logger.Enrich(ctx, f.logger).Error("failed to archive export", zap.String("key", key), zap.Error(err))
		return nil, shared.ErrStoreUnavailable.WithMessage("Failed to archive export").WithCause(err)
	}
	url, expiresAt, err := f.archive.PresignDownload(ctx, key, file.Name, f.archiveExpiry)
	if err != nil {
		return nil, shared.ErrStoreUnavailable.WithMessage("Failed to sign download link").WithCause(err)
	}

	return &ArchiveResponse{
		Key:       key,
		FileName:  file.Name,
		Format:    string(file.Format),
		Size:      len(file.Data),
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}
