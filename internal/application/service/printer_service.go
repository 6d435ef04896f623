package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/pkg/printer"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	txService   *TransactionService
	printerType string
	opts        ReceiptOptions
	log         zerolog.Logger
}

// ReceiptOptions configures the receipt header and layout.
type ReceiptOptions struct {
	StoreName string
	Currency  string
	Width     int
	Location  *time.Location
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	txService *TransactionService,
	printerType string,
	opts ReceiptOptions,
	log zerolog.Logger,
) *PrinterService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &PrinterService{
		printer:     p,
		txService:   txService,
		printerType: printerType,
		opts:        opts,
		log:         log.With().Str("component", "printer").Logger(),
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printerType,
	}
}

// PrintTransaction prints the receipt of one of the owner's transactions.
// The receipt is returned even when the printer fails so callers can show it.
func (s *PrinterService) PrintTransaction(ctx context.Context, ownerID, id string) (*entity.Receipt, error) {
	tx, err := s.txService.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	receipt := s.BuildReceipt(tx)
	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.opts.Width)); err != nil {
		s.log.Error().Err(err).Str("transaction_id", id).Msg("Printer error")
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// BuildReceipt composes a printable receipt from a transaction.
func (s *PrinterService) BuildReceipt(tx *entity.Transaction) *entity.Receipt {
	receipt := &entity.Receipt{
		Header:      entity.ReceiptHeader{StoreName: s.opts.StoreName},
		InvoiceNo:   invoiceNo(tx),
		Date:        tx.Timestamp.In(s.opts.Location).Format("2006-01-02 15:04"),
		Customer:    tx.CustomerName,
		PaymentType: tx.PaymentMethod.String(),
		Currency:    s.opts.Currency,
		Items:       make([]entity.ReceiptItem, 0, len(tx.Items)),
		SubTotal:    tx.Subtotal,
		Discount:    tx.Discount,
		Total:       tx.Total,
		Paid:        tx.Total,
		Change:      tx.Change,
	}
	if tx.CashTendered != nil {
		receipt.Paid = *tx.CashTendered
	}
	for _, it := range tx.Items {
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.LineTotal,
		})
	}
	return receipt
}

// invoiceNo is the day plus the first block of the transaction id.
func invoiceNo(tx *entity.Transaction) string {
	short := tx.ID
	if i := strings.IndexByte(short, '-'); i > 0 {
		short = short[:i]
	}
	return strings.ReplaceAll(tx.Day, "-", "") + "-" + strings.ToUpper(short)
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)
	amount := func(v int64) string { return printer.Amount(v, r.Currency) }

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Invoice:", r.InvoiceNo).
		KeyValue("Date:", r.Date)
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}
	if r.PaymentType != "" {
		doc.KeyValue("Payment:", r.PaymentType)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, amount(item.Total))
		if item.Quantity > 1 {
			doc.Textf("  @ %s each", amount(item.UnitPrice))
		}
	}

	doc.Separator('-')

	// Totals
	doc.KeyValue("Subtotal:", amount(r.SubTotal))
	if r.Discount > 0 {
		doc.KeyValue("Discount:", "-"+amount(r.Discount))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", amount(r.Total)).
		SetBold(false)

	doc.KeyValue("Paid:", amount(r.Paid))
	if r.Change > 0 {
		doc.KeyValue("Change:", amount(r.Change))
	}

	doc.Separator('-')

	// Footer
	doc.SetAlign(printer.AlignCenter).
		FeedLines(1).
		Text("Thank you!").
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
