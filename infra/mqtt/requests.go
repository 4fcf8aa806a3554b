package mqtt

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/infra/logger"
)

// Submitter queues an optimisation and returns its job identifier.
type Submitter interface {
	Submit(in model.Input) (string, error)
}

// Subscriber registers a handler for a topic.
type Subscriber interface {
	Subscribe(topic, kind string, h Handler) error
}

// Rejection is published on <prefix>/rejections when a request is refused.
type Rejection struct {
	Error string    `json:"error"`
	Time  time.Time `json:"time"`
}

// Accepted is published on <prefix>/accepted once a request is queued.
type Accepted struct {
	JobID string    `json:"job_id"`
	Time  time.Time `json:"time"`
}

// ListenRequests subscribes to <prefix>/requests. Each message carries an
// input document in JSON; it is submitted and answered on
// <prefix>/accepted or <prefix>/rejections.
func ListenRequests(cli interface {
	Subscriber
	Publisher
}, prefix string, sub Submitter, log logger.Logger) error {
	if log == nil {
		log = logger.NopLogger{}
	}
	reply := func(topic string, v any) {
		payload, err := json.Marshal(v)
		if err == nil {
			err = cli.Publish(topic, QoSStatus, payload)
		}
		if err != nil {
			log.Errorf("reply on %s: %v", topic, err)
		}
	}
	return cli.Subscribe(prefix+"/requests", QoSRequests, func(_ string, payload []byte) {
		in, err := model.DecodeInput(bytes.NewReader(payload), "json")
		if err == nil {
			var id string
			if id, err = sub.Submit(in); err == nil {
				log.Infof("accepted request as job %s", id)
				reply(prefix+"/accepted", Accepted{JobID: id, Time: time.Now()})
				return
			}
		}
		log.Warnf("rejected request: %v", err)
		reply(prefix+"/rejections", Rejection{Error: err.Error(), Time: time.Now()})
	})
}
