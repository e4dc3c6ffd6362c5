// Package eventBusTypes defines the events and consumers of the eventBus package.
package eventBusTypes

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type EventName string

func (en *EventName) String() string {
	return string(*en)
}

var (
	// Event_Toast carries a user-facing notification, usually an error.
	Event_Toast EventName = "toast"

	Event_BalancesLoaded         EventName = "balances_loaded"
	Event_NeuronsLoaded          EventName = "neurons_loaded"
	Event_PricesLoaded           EventName = "prices_loaded"
	Event_StakingRewardsComputed EventName = "staking_rewards_computed"
	Event_SwapLifecycleChanged   EventName = "swap_lifecycle_changed"
	Event_ExportCompleted        EventName = "export_completed"
)

type Event struct {
	Name EventName
	Data any
}

type ConsumerId string

type Consumer struct {
	Id      ConsumerId
	Context context.Context
	Channel chan *Event
}

// NewConsumer creates a consumer with a random id and a buffered channel.
func NewConsumer(ctx context.Context, bufferSize int) *Consumer {
	return &Consumer{
		Id:      ConsumerId(uuid.New().String()),
		Context: ctx,
		Channel: make(chan *Event, bufferSize),
	}
}

type ConsumerList struct {
	mu        sync.Mutex
	consumers []*Consumer
}

func NewConsumerList() *ConsumerList {
	return &ConsumerList{
		consumers: make([]*Consumer, 0),
	}
}

func (cl *ConsumerList) Add(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = append(cl.consumers, consumer)
}

func (cl *ConsumerList) Remove(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for i, c := range cl.consumers {
		if c.Id == consumer.Id {
			cl.consumers = append(cl.consumers[:i], cl.consumers[i+1:]...)
			break
		}
	}
}

// GetAll returns a copy of the consumer list.
func (cl *ConsumerList) GetAll() []*Consumer {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := make([]*Consumer, len(cl.consumers))
	copy(out, cl.consumers)
	return out
}

type IEventBus interface {
	Subscribe(consumer *Consumer)
	Unsubscribe(consumer *Consumer)
	Publish(event *Event)
	Toast(level ToastLevel, message string, err error)
}

type ToastLevel string

const (
	ToastLevel_Error   ToastLevel = "error"
	ToastLevel_Warning ToastLevel = "warning"
	ToastLevel_Success ToastLevel = "success"
)

type ToastData struct {
	Level   ToastLevel
	Message string
	Err     error
}

// LoadedData is the payload of the *_loaded events.
type LoadedData struct {
	ProjectId string
	Certified bool
}

type SwapLifecycleData struct {
	SwapCanisterId string
	Lifecycle      string
}

type ExportCompletedData struct {
	Kind     string
	FilePath string
}
