package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/repository/contract"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the transcript topic and persists each
// finished thread. Runs as a background goroutine of the REST process.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	transcriptRepo contract.TranscriptRepository
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	transcriptRepo contract.TranscriptRepository,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		transcriptRepo: transcriptRepo,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SaveTranscriptMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal transcript message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if len(payload.Messages) == 0 {
		log.Printf("[INFO] Skipping empty transcript for thread %s", payload.ThreadID)
		msg.Ack()
		return
	}

	transcript := &entity.Transcript{
		Id:       uuid.New(),
		ThreadId: payload.ThreadID,
		EndedAt:  payload.EndedAt,
	}
	if transcript.EndedAt.IsZero() {
		transcript.EndedAt = time.Now()
	}
	for _, m := range payload.Messages {
		transcript.Messages = append(transcript.Messages, entity.TranscriptMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	if err := cs.transcriptRepo.Create(ctx, transcript); err != nil {
		log.Printf("[ERROR] Failed to save transcript for thread %s: %v", payload.ThreadID, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	log.Printf("[INFO] Transcript saved for thread %s (%d messages)", payload.ThreadID, len(payload.Messages))
	msg.Ack()
}
