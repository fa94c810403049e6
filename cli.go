package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sticket-backend/checkin"
	"sticket-backend/models"
)

var checkinQR string

var checkinCmd = &cobra.Command{
	Use:   "checkin <event-address> [ticket-id]",
	Short: "Check in a single ticket with the configured wallet",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventAddress := args[0]
		if checkinQR == "" && len(args) < 2 {
			return fmt.Errorf("a ticket id or --qr is required")
		}

		var ticketID uint32
		if checkinQR == "" {
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid ticket id %q", args[1])
			}
			ticketID = uint32(id)
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect wallet: %w", err)
		}

		o := a.manager.For(eventAddress)
		var result models.CheckInResult
		if checkinQR != "" {
			result = o.ProcessQRCode(ctx, checkinQR)
		} else {
			result = o.MarkTicketUsed(ctx, ticketID)
		}

		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("check-in failed: %s", result.Message)
		}
		return nil
	},
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Parse or generate check-in QR payloads",
}

var qrParseCmd = &cobra.Command{
	Use:   "parse <event-address> <qr-data>",
	Short: "Validate a scanned QR payload against an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := checkin.ParseQRCode(args[1], args[0])
		if payload == nil {
			return fmt.Errorf("%s", checkin.MsgInvalidQRCode)
		}
		ticketID, err := checkin.TicketNumber(payload.TokenID)
		if err != nil {
			return fmt.Errorf("%s: %w", checkin.MsgInvalidQRTicketID, err)
		}
		return printJSON(map[string]interface{}{
			"payload":   payload,
			"ticket_id": ticketID,
		})
	},
}

var (
	qrOwner     string
	qrEventName string
	qrEventDate string
)

var qrEncodeCmd = &cobra.Command{
	Use:   "encode <event-address> <ticket-id>",
	Short: "Print the QR payload for a ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.ParseUint(args[1], 10, 32); err != nil {
			return fmt.Errorf("invalid ticket id %q", args[1])
		}
		data, err := checkin.EncodeQRCode(models.QRPayload{
			TicketID:        args[1],
			ContractAddress: args[0],
			EventName:       qrEventName,
			EventDate:       qrEventDate,
			OwnerAddress:    qrOwner,
			Timestamp:       time.Now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, data)
		return nil
	},
}

func init() {
	checkinCmd.Flags().StringVar(&checkinQR, "qr", "", "scanned QR payload instead of a ticket id")

	qrEncodeCmd.Flags().StringVar(&qrOwner, "owner", "", "ticket owner address")
	qrEncodeCmd.Flags().StringVar(&qrEventName, "event-name", "", "event name")
	qrEncodeCmd.Flags().StringVar(&qrEventDate, "event-date", "", "event date")
	qrCmd.AddCommand(qrParseCmd, qrEncodeCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
