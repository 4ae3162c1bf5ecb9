package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages appended to the log",
		},
	)

	receiptsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_receipts_emitted_total",
			Help: "Total number of delivery and read receipts emitted",
		},
		[]string{"type"},
	)

	sendsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sends_rejected_total",
			Help: "Total number of rejected send attempts",
		},
		[]string{"reason"},
	)

	pushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_push_failures_total",
			Help: "Total number of push notifications that could not be enqueued",
		},
	)
)
