package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fairwaybook/teetime-service/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

// settlementMessage is what the payment gateway integration publishes once a
// deferred charge settles or fails.
type settlementMessage struct {
	BookingID uint   `json:"booking_id"`
	Status    string `json:"status"`
}

type PaymentConsumer struct {
	svc service.ReservationService
}

func NewPaymentConsumer(svc service.ReservationService) *PaymentConsumer {
	return &PaymentConsumer{svc: svc}
}

// Start listens for settlement messages and confirms the matching holds.
func (pc *PaymentConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(msg)
		}
		log.Println("[PaymentConsumer] channel closed, stopping consumer")
	}()
}

func (pc *PaymentConsumer) handleMessage(msg amqp.Delivery) {
	var settlement settlementMessage
	if err := json.Unmarshal(msg.Body, &settlement); err != nil {
		log.Printf("[PaymentConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	// Failed or refunded settlements are left to the hold expiry; only a
	// success flips pending to confirmed.
	if settlement.Status != "succeeded" {
		log.Printf("[PaymentConsumer] ignoring settlement for booking %d: %s", settlement.BookingID, settlement.Status)
		msg.Ack(false)
		return
	}

	if err := pc.svc.ConfirmFromPayment(context.Background(), settlement.BookingID); err != nil {
		log.Printf("[PaymentConsumer] failed to confirm booking %d: %v", settlement.BookingID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[PaymentConsumer] confirmed booking %d", settlement.BookingID)
	msg.Ack(false)
}
