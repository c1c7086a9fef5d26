package campaign

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const deliveriesCollection = "campaign_deliveries"

type firestoreDelivery struct {
	CampaignID string    `firestore:"campaign_id"`
	Email      string    `firestore:"email"`
	SentAt     time.Time `firestore:"sent_at"`
}

// FirestoreLedger stores one document per delivery.
type FirestoreLedger struct {
	client *firestore.Client
}

// NewFirestoreLedger creates a Firestore-backed ledger.
func NewFirestoreLedger(client *firestore.Client) *FirestoreLedger {
	return &FirestoreLedger{client: client}
}

// deliveryID hashes the pair so emails never appear in document paths.
func deliveryID(campaignID, email string) string {
	sum := sha256.Sum256([]byte(campaignID + "\x00" + email))
	return hex.EncodeToString(sum[:])
}

func (l *FirestoreLedger) Seen(ctx context.Context, campaignID, email string) (bool, error) {
	doc, err := l.client.Collection(deliveriesCollection).Doc(deliveryID(campaignID, email)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return doc.Exists(), nil
}

// Record creates the delivery document. A document that already exists is
// not an error.
func (l *FirestoreLedger) Record(ctx context.Context, campaignID, email string) error {
	ref := l.client.Collection(deliveriesCollection).Doc(deliveryID(campaignID, email))
	_, err := ref.Create(ctx, firestoreDelivery{
		CampaignID: campaignID,
		Email:      email,
		SentAt:     time.Now().UTC(),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return err
	}
	return nil
}

// Compile-time interface check
var _ Ledger = (*FirestoreLedger)(nil)
