package socket

import (
	"fmt"
)

// Broadcaster provides high-level methods for broadcasting events. Events
// about a senior's data go to the senior's room, which both halves of an
// active link subscribe to.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func seniorRoom(seniorID string) string {
	return fmt.Sprintf("senior:%s", seniorID)
}

// ============================================
// Notification Broadcasting
// ============================================

// BroadcastNotification pushes a persisted notification to the user
func (b *Broadcaster) BroadcastNotification(userID, notificationID, notifType, title, message string) {
	b.hub.SendToUser(userID, MessageNotification, map[string]interface{}{
		"id":      notificationID,
		"type":    notifType,
		"title":   title,
		"message": message,
	})
}

// SendNotificationCount updates the unread count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// ============================================
// Medication Broadcasting
// ============================================

// BroadcastMedicationCreated broadcasts medication creation to the senior's room
func (b *Broadcaster) BroadcastMedicationCreated(seniorID, medicationID, name string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageMedicationCreated, map[string]interface{}{
		"medicationId": medicationID,
		"name":         name,
		"seniorId":     seniorID,
	}, "")
}

// BroadcastMedicationDeleted broadcasts medication deletion to the senior's room
func (b *Broadcaster) BroadcastMedicationDeleted(seniorID, medicationID, name string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageMedicationDeleted, map[string]interface{}{
		"medicationId": medicationID,
		"name":         name,
		"seniorId":     seniorID,
	}, "")
}

// ============================================
// Dose Broadcasting
// ============================================

// BroadcastDoseGenerated announces freshly materialized dose occurrences
func (b *Broadcaster) BroadcastDoseGenerated(seniorID string, count int) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageDoseGenerated, map[string]interface{}{
		"seniorId": seniorID,
		"count":    count,
	}, "")
}

// BroadcastDoseTaken announces a dose confirmed by the senior
func (b *Broadcaster) BroadcastDoseTaken(seniorID, doseID, medicationID string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageDoseTaken, map[string]interface{}{
		"doseId":       doseID,
		"medicationId": medicationID,
		"seniorId":     seniorID,
	}, "")
}

// BroadcastDoseMissed announces doses swept to missed
func (b *Broadcaster) BroadcastDoseMissed(seniorID string, count int) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageDoseMissed, map[string]interface{}{
		"seniorId": seniorID,
		"count":    count,
	}, "")
}

// ============================================
// Link Broadcasting
// ============================================

// BroadcastLinkRequested announces a new pending link
func (b *Broadcaster) BroadcastLinkRequested(seniorID, linkID, requestedBy string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageLinkRequested, map[string]interface{}{
		"linkId":      linkID,
		"seniorId":    seniorID,
		"requestedBy": requestedBy,
	}, "")
}

// BroadcastLinkAccepted announces link activation
func (b *Broadcaster) BroadcastLinkAccepted(seniorID, linkID string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageLinkAccepted, map[string]interface{}{
		"linkId":   linkID,
		"seniorId": seniorID,
	}, "")
}

// BroadcastLinkRemoved announces link deletion
func (b *Broadcaster) BroadcastLinkRemoved(seniorID, linkID string) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageLinkRemoved, map[string]interface{}{
		"linkId":   linkID,
		"seniorId": seniorID,
	}, "")
}

// BroadcastConsentUpdated announces an editing consent change
func (b *Broadcaster) BroadcastConsentUpdated(seniorID, linkID string, editingApproved bool) {
	b.hub.SendToRoom(seniorRoom(seniorID), MessageConsentUpdated, map[string]interface{}{
		"linkId":          linkID,
		"seniorId":        seniorID,
		"editingApproved": editingApproved,
	}, "")
}
