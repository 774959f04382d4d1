// Package broker publishes JSON notifications to an AMQP 0-9-1 exchange (RabbitMQ).
//
// Dial owns the connection; NewPublisher works on any Channel so tests can use
// core/broker/mocks. Messages are persistent and carry a message id.
package broker
