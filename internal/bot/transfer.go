package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bank transfer flow: wallet, amount, destination bank, IBAN, account name,
// purpose, invoice scan, optional bank statement scan, beneficiary address,
// fee recap, confirmation and PIN. The submission is a single multipart
// request carrying both scans.

func (b *Bot) startTransfer(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}

	b.beginFlow(ctx, chatID, sess, session.FlowTransfer, session.StepTransferType)
	sess.Flow.Transfer = &session.TransferState{}

	b.send(chatID, "📤 What kind of transfer?\n1) To another Afripay account\n2) Bank transfer\n\nReply 1 or 2:")
	b.save(chatID, sess)
}

func (b *Bot) transferStep(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	st := sess.Flow.Transfer
	if st == nil {
		b.send(chatID, b.texts.Get().GenericError)
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch sess.Flow.Step {
	case session.StepTransferType:
		switch text {
		case "1":
			b.send(chatID, b.texts.Get().ComingSoon)
			b.endFlow(ctx, chatID, sess, "completed")
		case "2":
			b.loadTransferWallets(ctx, chatID, sess)
		default:
			b.send(chatID, "⚠️ Please reply 1 or 2:")
		}

	case session.StepTransferWallet:
		idx, ok := parseIndex(text, len(st.Wallets))
		if !ok {
			b.send(chatID, transferWalletList(st.Wallets))
			return
		}
		wallet := st.Wallets[idx]
		st.Wallet = &wallet
		st.CurrencyCode = wallet.Code
		sess.Flow.Step = session.StepTransferAmount
		b.send(chatID, fmt.Sprintf("💵 Enter the amount to send (%s):", wallet.Code))
		b.save(chatID, sess)

	case session.StepTransferAmount:
		amount, ok := parseAmount(text)
		if !ok {
			b.send(chatID, "⚠️ Invalid amount. Please enter a positive number:")
			return
		}
		st.Amount = amount
		b.loadBanks(ctx, chatID, sess)

	case session.StepTransferBank:
		idx, ok := parseIndex(text, len(st.Banks))
		if !ok {
			b.send(chatID, bankList(st.Banks))
			return
		}
		st.Bank = st.Banks[idx].Title
		sess.Flow.Step = session.StepTransferIban
		b.send(chatID, "🏦 Enter the beneficiary IBAN:")
		b.save(chatID, sess)

	case session.StepTransferIban:
		if len(text) < 5 {
			b.send(chatID, "⚠️ That IBAN looks too short. Please try again:")
			return
		}
		st.Iban = strings.ReplaceAll(text, " ", "")
		sess.Flow.Step = session.StepTransferName
		b.send(chatID, "👤 Enter the beneficiary account name:")
		b.save(chatID, sess)

	case session.StepTransferName:
		if len(text) < 3 {
			b.send(chatID, "⚠️ Account name too short. Please try again:")
			return
		}
		st.AccountName = text
		sess.Flow.Step = session.StepTransferPurpose
		b.send(chatID, "📝 What is the purpose of this transfer?")
		b.save(chatID, sess)

	case session.StepTransferPurpose:
		if len(text) < 3 {
			b.send(chatID, "⚠️ Purpose too short. Please try again:")
			return
		}
		st.Purpose = text
		sess.Flow.Step = session.StepTransferInvoice
		b.send(chatID, "📎 Please upload the invoice or proforma (photo or document, max 2 MB).")
		b.save(chatID, sess)

	case session.StepTransferInvoice:
		att, ok := b.ingestFile(ctx, chatID, msg)
		if !ok {
			return
		}
		st.InvoiceScan = att
		sess.Flow.Step = session.StepTransferBankInfo
		b.send(chatID, "📎 Optionally upload the beneficiary's bank details document, or reply \"skip\".")
		b.save(chatID, sess)

	case session.StepTransferBankInfo:
		if strings.EqualFold(text, "skip") {
			sess.Flow.Step = session.StepTransferAddress
			b.send(chatID, "📮 Enter the beneficiary address:")
			b.save(chatID, sess)
			return
		}
		// Optional document: oversize or failed downloads degrade to none
		// instead of blocking the transfer.
		if file := telegram.ExtractFile(msg); file != nil {
			if file.Size > telegram.MaxFileSize {
				b.send(chatID, "⚠️ File too large, continuing without the bank details document.")
			} else if data, err := b.files.Download(ctx, file.ID); err != nil {
				logger.Warning("Bank details download failed for chat", chatID, err)
				b.send(chatID, "⚠️ Could not download the document, continuing without it.")
			} else {
				st.BankInfoScan = &session.Attachment{
					Filename: file.Name,
					Mime:     file.Mime,
					Size:     file.Size,
					Data:     data,
				}
			}
		} else {
			b.send(chatID, "⚠️ No document detected, continuing without it.")
		}
		sess.Flow.Step = session.StepTransferAddress
		b.send(chatID, "📮 Enter the beneficiary address:")
		b.save(chatID, sess)

	case session.StepTransferAddress:
		if len(text) < 3 {
			b.send(chatID, "⚠️ Address too short. Please try again:")
			return
		}
		st.Address = text
		b.calculateTransferDetails(ctx, chatID, sess)

	case session.StepTransferConfirm:
		if !isConfirmation(text) {
			b.send(chatID, "🚫 Transfer cancelled. Type /menu to return to services.")
			b.endFlow(ctx, chatID, sess, "cancelled")
			return
		}
		sess.Flow.Step = session.StepTransferPin
		sess.Flow.PinAttempts = 0
		b.send(chatID, "🔐 Enter your 6-digit PIN to confirm:")
		b.save(chatID, sess)

	case session.StepTransferPin:
		switch b.checkPin(ctx, chatID, msg, sess) {
		case pinRetry:
			return
		case pinExhausted:
			b.send(chatID, "❌ Too many failed attempts. Transfer cancelled.")
			b.endFlow(ctx, chatID, sess, "pin_exhausted")
			return
		}
		b.submitTransfer(ctx, chatID, sess)

	default:
		b.endFlow(ctx, chatID, sess, "failed")
	}
}

func (b *Bot) loadTransferWallets(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Transfer

	env, err := telegram.WithLoader(b.tg, chatID, "Loading your wallets...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodGet, "/user/bank-transfer/create", chatID, sess.Auth.AccessToken, nil)
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	wallets := backend.DecodeTransferWallets(env)
	if len(wallets) == 0 {
		b.send(chatID, "❌ No wallets available for bank transfers.")
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	st.Wallets = wallets
	sess.Flow.Step = session.StepTransferWallet
	b.send(chatID, transferWalletList(wallets))
	b.save(chatID, sess)
}

func (b *Bot) loadBanks(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Transfer

	path := fmt.Sprintf("/user/bank-transfer/%s/banks", st.CurrencyCode)
	env, err := telegram.WithLoader(b.tg, chatID, "Loading destination banks...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodGet, path, chatID, sess.Auth.AccessToken, nil)
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	banks := backend.DecodeBanks(env)
	if len(banks) == 0 {
		b.send(chatID, "❌ No destination banks available for this currency.")
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	st.Banks = banks
	sess.Flow.Step = session.StepTransferBank
	b.send(chatID, bankList(banks))
	b.save(chatID, sess)
}

// calculateTransferDetails asks the backend for fees and the final amount.
// A failed calculation degrades to zeros rather than blocking the flow; the
// backend recomputes everything at submission anyway.
func (b *Bot) calculateTransferDetails(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Transfer

	b.tg.Typing(chatID)

	details := session.TransferDetails{Fees: "0", Tva: "0", FinalAmount: formatAmount(st.Amount)}

	env, err := b.api.Invoke(ctx, http.MethodPost, "/user/bank-transfer/details", chatID, sess.Auth.AccessToken, map[string]interface{}{
		"currency": st.CurrencyCode,
		"amount":   st.Amount,
		"bank":     st.Bank,
	})
	if err != nil {
		logger.Warning("Transfer details calculation failed for chat", chatID, err)
	} else if decoded, ok := backend.DecodeTransferDetails(env); ok {
		details = decoded
	}

	st.Details = &details
	sess.Flow.Step = session.StepTransferConfirm

	recap := fmt.Sprintf("🧾 <b>Transfer summary</b>\n"+
		"Amount: %s %s\n"+
		"Bank: %s\n"+
		"IBAN: %s\n"+
		"Beneficiary: %s\n"+
		"Purpose: %s\n"+
		"Fees: %s | VAT: %s\n"+
		"Total debited: %s\n\nProceed?",
		formatAmount(st.Amount), st.CurrencyCode,
		st.Bank, st.Iban, st.AccountName, st.Purpose,
		details.Fees, details.Tva, details.FinalAmount)

	if _, err := b.tg.SendHTML(chatID, recap, confirmKeyboard()); err != nil {
		logger.Warning("Send failed for chat", chatID, err)
	}
	b.save(chatID, sess)
}

func (b *Bot) submitTransfer(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Transfer

	fields := map[string]string{
		"wallet":       fmt.Sprint(st.Wallet.ID),
		"amount":       formatAmount(st.Amount),
		"bank":         st.Bank,
		"iban":         st.Iban,
		"account_name": st.AccountName,
		"object":       st.Purpose,
		"address":      st.Address,
	}

	files := []backend.FilePart{{
		Field:    "scan_invoice",
		Filename: st.InvoiceScan.Filename,
		Mime:     st.InvoiceScan.Mime,
		Data:     st.InvoiceScan.Data,
	}}
	if st.BankInfoScan != nil {
		files = append(files, backend.FilePart{
			Field:    "scan_bank_infos",
			Filename: st.BankInfoScan.Filename,
			Mime:     st.BankInfoScan.Mime,
			Data:     st.BankInfoScan.Data,
		})
	}

	env, err := telegram.WithLoader(b.tg, chatID, "Submitting your transfer...", func() (backend.Envelope, error) {
		return b.api.Upload(ctx, "/user/bank-transfer", chatID, sess.Auth.AccessToken, fields, files)
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	msg := env.String("message")
	if msg == "" {
		msg = fmt.Sprintf("✅ Transfer of %s %s to %s submitted. You will be notified once it is processed.",
			formatAmount(st.Amount), st.CurrencyCode, st.AccountName)
	}
	b.send(chatID, msg)
	b.endFlow(ctx, chatID, sess, "completed")
}

func transferWalletList(wallets []session.TransferWallet) string {
	var sb strings.Builder
	sb.WriteString("👛 Pick the wallet to debit, reply with its number:\n")
	for i, w := range wallets {
		sb.WriteString(fmt.Sprintf("%d) %s — balance %s\n", i+1, w.Code, formatAmount(w.Balance)))
	}
	return sb.String()
}

func bankList(banks []session.Bank) string {
	var sb strings.Builder
	sb.WriteString("🏦 Pick the destination bank, reply with its number:\n")
	for i, bank := range banks {
		sb.WriteString(fmt.Sprintf("%d) %s\n", i+1, bank.Title))
	}
	return sb.String()
}
