package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	infrapdf "github.com/jhoicas/facturador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-api/internal/infrastructure/postgres"
	infraubl "github.com/jhoicas/facturador-api/internal/infrastructure/ubl"
	infraxlsx "github.com/jhoicas/facturador-api/internal/infrastructure/xlsx"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema de base de datos (idempotente)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := postgres.Migrate(cmd.Context(), e.pool); err != nil {
				return err
			}
			e.log.Info().Msg("esquema aplicado")
			return nil
		},
	}
}

func newMarkOverdueCmd(e *env) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Pasa a OVERDUE las facturas SENT con vencimiento anterior a la fecha",
		Example: `  facturasctl mark-overdue
  facturasctl mark-overdue --date 2024-04-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay(date, time.Now().UTC())
			if err != nil {
				return err
			}
			invoiceRepo := postgres.NewInvoiceRepository(e.pool)
			uc := billing.NewInvoiceUseCase(
				postgres.NewTxRunner(e.pool), invoiceRepo,
				postgres.NewClientRepository(e.pool), postgres.NewItemRepository(e.pool), postgres.NewUserRepository(e.pool),
				e.defaults(),
			).WithClock(func() time.Time { return day })

			n, err := uc.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}
			e.log.Info().Int("invoices", n).Str("date", day.Format(dayLayout)).Msg("facturas marcadas como vencidas")
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "fecha de corte YYYY-MM-DD (por defecto hoy)")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var userID, out string
	var year int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta el registro de facturas de un usuario a XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := billing.NewExportUseCase(
				postgres.NewInvoiceRepository(e.pool), postgres.NewClientRepository(e.pool),
				infraxlsx.NewRegisterExporter(), time.Now,
			)
			doc, err := uc.ExportYear(auth.WithUserID(cmd.Context(), userID), year)
			if err != nil {
				return err
			}
			return writeDocument(cmd, e, doc, out)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id del usuario")
	cmd.Flags().IntVar(&year, "year", 0, "año (por defecto el actual)")
	cmd.Flags().StringVar(&out, "out", "", "archivo de salida (por defecto invoices-<año>.xlsx)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRenderCmd(e *env) *cobra.Command {
	var userID, invoiceID, out, format string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Genera el PDF o el UBL de una factura",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := billing.NewDocumentUseCase(
				postgres.NewInvoiceRepository(e.pool), postgres.NewClientRepository(e.pool), postgres.NewUserRepository(e.pool),
				infrapdf.NewMarotoPDFGenerator(), infraubl.NewXMLBuilder(),
			)
			ctx := auth.WithUserID(cmd.Context(), userID)
			var doc *billing.Document
			var err error
			switch format {
			case "pdf":
				doc, err = uc.InvoicePDF(ctx, invoiceID)
			case "ubl":
				doc, err = uc.InvoiceUBL(ctx, invoiceID)
			default:
				return fmt.Errorf("formato %q no soportado (pdf, ubl)", format)
			}
			if err != nil {
				return err
			}
			return writeDocument(cmd, e, doc, out)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id del usuario")
	cmd.Flags().StringVar(&invoiceID, "invoice", "", "id de la factura")
	cmd.Flags().StringVar(&out, "out", "", "archivo de salida (por defecto invoice-<número>.<ext>)")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf o ubl")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("invoice")
	return cmd
}

func writeDocument(cmd *cobra.Command, e *env, doc *billing.Document, out string) error {
	if out == "" {
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", out, err)
	}
	e.log.Info().Str("file", out).Int("bytes", len(doc.Data)).Msg("documento generado")
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
