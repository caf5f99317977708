package store

import (
	"context"
	"fmt"

	"github.com/safar/tradein-store/internal/models"
)

func InsertDocument(ctx context.Context, db Querier, doc *models.Document) error {
	err := db.QueryRowContext(ctx,
		`INSERT INTO trade_in_documents (trade_in_id, document_type, file_name, content_type, size_bytes,
			storage_path, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING id, created_at`,
		doc.TradeInID, doc.DocumentType, doc.FileName, doc.ContentType, doc.SizeBytes,
		doc.StoragePath, doc.UploadedBy,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func ListDocuments(ctx context.Context, db Querier, tradeInID int64) ([]models.Document, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, trade_in_id, document_type, file_name, content_type, size_bytes, storage_path,
			uploaded_by, created_at
		 FROM trade_in_documents
		 WHERE trade_in_id = $1
		 ORDER BY id`,
		tradeInID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.TradeInID,
			&doc.DocumentType,
			&doc.FileName,
			&doc.ContentType,
			&doc.SizeBytes,
			&doc.StoragePath,
			&doc.UploadedBy,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return docs, nil
}
