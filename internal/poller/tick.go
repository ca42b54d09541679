package poller

import (
	"context"
	"strconv"
	"time"

	"github.com/skobu/mailrelay/internal/imapx"
	"github.com/skobu/mailrelay/internal/rules"
	"github.com/skobu/mailrelay/pkg/models"
)

// pollOnce runs one tick unless the previous tick of the same account is
// still in flight; an overlapping tick is skipped, not queued
func (s *Scheduler) pollOnce(ap *accountPoller) {
	if !ap.polling.CompareAndSwap(false, true) {
		return
	}
	defer ap.polling.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if err := s.tick(ctx, ap.account); err != nil {
		ap.setError(err)
		s.logger.Error("poll failed", "account", ap.account.Name, "error", err)
		// Drop the cached connection after connection-level failures so the
		// next tick reconnects. The timer keeps running either way.
		if imapx.IsTransient(err) {
			s.conns.Release(ap.account.ID)
		}
		return
	}
	ap.setRunning()
}

// tick drains new messages above the cursor, routes them and advances the
// cursor. Only per-tick setup errors propagate; per-message failures become
// delivery records.
func (s *Scheduler) tick(ctx context.Context, account *models.Account) error {
	conn, err := s.conns.Acquire(ctx, account)
	if err != nil {
		return err
	}
	if err := conn.Noop(ctx); err != nil {
		return err
	}
	release, err := conn.AcquireMailbox(ctx)
	if err != nil {
		return err
	}
	defer release()

	ruleSet, err := s.store.GetEnabledRules(ctx, account.ID)
	if err != nil {
		return err
	}
	if len(ruleSet) == 0 {
		// Nothing can match, so don't consume the sequence space: messages
		// arriving now must still be routable once a rule exists.
		s.logger.Debug("no enabled rules, skipping fetch", "account", account.Name)
		return nil
	}

	cursor, seeded, err := s.store.GetCursor(ctx, account.ID)
	if err != nil {
		return err
	}
	if !seeded {
		// First tick ever: set the cursor to the mailbox tail without
		// fetching, so historical backlog is never routed.
		next, err := conn.UIDNext(ctx)
		if err != nil {
			return err
		}
		tail := next
		if tail > 0 {
			tail--
		}
		s.logger.Info("cursor seeded to mailbox tail", "account", account.Name, "uid", tail)
		return s.store.SetCursor(ctx, account.ID, tail, time.Now())
	}

	raws, err := conn.FetchSince(ctx, cursor.LastUID)
	if err != nil {
		return err
	}

	maxUID := cursor.LastUID
	processed := 0
	for _, raw := range raws {
		if raw.UID > maxUID {
			maxUID = raw.UID
		}
		// Some servers answer a range request with a superset.
		if raw.UID <= cursor.LastUID {
			continue
		}
		done, err := s.store.IsProcessed(ctx, account.ID, uidKey(raw.UID))
		if err != nil {
			return err
		}
		if done {
			continue
		}
		s.processMessage(ctx, account, raw, ruleSet)
		processed++
	}

	if processed > 0 {
		s.logger.Info("poll processed new messages", "account", account.Name, "count", processed)
	}

	if maxUID > cursor.LastUID {
		return s.store.SetCursor(ctx, account.ID, maxUID, time.Now())
	}
	return s.store.TouchCursor(ctx, account.ID, time.Now())
}

// processMessage normalizes and routes one message. Every outcome, including
// failure, lands in the delivery log so the message is never reprocessed.
func (s *Scheduler) processMessage(ctx context.Context, account *models.Account, raw *imapx.RawMessage, ruleSet []*models.Rule) {
	uid := uidKey(raw.UID)

	msg, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.record(ctx, &models.DeliveryRecord{
			AccountID:    account.ID,
			UID:          uid,
			Sender:       msg.SenderEmail,
			Subject:      msg.Subject,
			Status:       models.StatusFailed,
			ErrorMessage: err.Error(),
		})
		return
	}

	matched := rules.Match(ruleSet, msg)
	if len(matched) == 0 {
		s.record(ctx, &models.DeliveryRecord{
			AccountID: account.ID,
			UID:       uid,
			Sender:    msg.SenderEmail,
			Subject:   msg.Subject,
			Status:    models.StatusSkipped,
		})
		return
	}

	// One delivery attempt per room per message: a second rule targeting the
	// same room would just duplicate the notification.
	attempted := make(map[string]bool)
	for _, rule := range matched {
		rec := &models.DeliveryRecord{
			AccountID:      account.ID,
			UID:            uid,
			RuleID:         rule.ID,
			Sender:         msg.SenderEmail,
			Subject:        msg.Subject,
			ChatworkRoomID: rule.ChatworkRoomID,
		}

		if attempted[rule.ChatworkRoomID] {
			rec.Status = models.StatusSkipped
			rec.ErrorMessage = "room already handled for this message"
			s.record(ctx, rec)
			continue
		}
		attempted[rule.ChatworkRoomID] = true

		text := rules.Render(rule.MessageTemplate, msg, rule, account.Name)
		if err := s.sender.SendMessage(ctx, rule.ChatworkRoomID, text); err != nil {
			rec.Status = models.StatusFailed
			rec.ErrorMessage = err.Error()
			s.record(ctx, rec)
			s.logger.Error("failed to forward message", "account", account.Name, "room", rule.ChatworkRoomID, "error", err)
			continue
		}

		rec.Status = models.StatusSent
		s.record(ctx, rec)
		s.logger.Info("forwarded message", "account", account.Name, "room", rule.ChatworkRoomID, "subject", msg.Subject)
	}
}

func (s *Scheduler) record(ctx context.Context, rec *models.DeliveryRecord) {
	if err := s.store.RecordDelivery(ctx, rec); err != nil {
		s.logger.Error("failed to record delivery", "account_id", rec.AccountID, "uid", rec.UID, "error", err)
	}
}

func uidKey(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}
