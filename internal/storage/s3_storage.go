package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alairock/kash-money/internal/config"
)

// IInvoiceArchive stores copies of rendered invoice PDFs.
type IInvoiceArchive interface {
	// Enabled reports whether an archive bucket is configured; callers
	// skip archiving when it isn't.
	Enabled() bool
	ArchiveInvoicePDF(ctx context.Context, userID, invoiceNumber string, pdfBytes []byte) (string, error)
}

// s3InvoiceArchive implements IInvoiceArchive against S3.
type s3InvoiceArchive struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3InvoiceArchive creates the S3-backed invoice archive.
func NewS3InvoiceArchive(cfg *config.Config) (IInvoiceArchive, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Static credentials from config for simplicity; IAM roles are the
		// production path.
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3InvoiceArchive{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

func (s *s3InvoiceArchive) Enabled() bool {
	return s.cfg.AwsS3Bucket != ""
}

// ArchiveInvoicePDF writes the PDF under a stable per-user key and returns
// the key. Re-sending an invoice overwrites the previous copy, which is the
// intended behavior: one archived PDF per invoice number.
func (s *s3InvoiceArchive) ArchiveInvoicePDF(ctx context.Context, userID, invoiceNumber string, pdfBytes []byte) (string, error) {
	objectKey := fmt.Sprintf("invoices/%s/%s.pdf", userID, invoiceNumber)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(pdfBytes),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive invoice PDF to key %s: %w", objectKey, err)
	}

	return objectKey, nil
}
