package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"insurance-intake-be/internal/dto"
)

// IPublisherService hands finished-thread transcripts to the
// persistence pipeline without blocking the HTTP path.
type IPublisherService interface {
	PublishTranscript(ctx context.Context, payload dto.SaveTranscriptMessage) error
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (s *publisherService) PublishTranscript(ctx context.Context, payload dto.SaveTranscriptMessage) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	return s.pubSub.Publish(s.topicName, msg)
}
