package test

import (
	"context"
	"sync"

	"github.com/tidepool-org/caretrack/devices"
	"github.com/tidepool-org/caretrack/test"
)

type Deleted struct {
	Device devices.Device
	Reason string
}

type Repository struct {
	mu      sync.Mutex
	devices map[string]devices.Device
	deleted []Deleted
}

var _ devices.Repository = &Repository{}

func NewRepository(devs ...devices.Device) *Repository {
	r := &Repository{devices: make(map[string]devices.Device)}
	for _, d := range devs {
		r.devices[d.Id] = d
	}
	return r
}

func (r *Repository) ListByUser(_ context.Context, userId string) ([]devices.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []devices.Device
	for _, d := range r.devices {
		if d.UserId == userId {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *Repository) Delete(_ context.Context, device devices.Device, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[device.Id]; !ok {
		return devices.ErrNotFound
	}
	delete(r.devices, device.Id)
	r.deleted = append(r.deleted, Deleted{Device: device, Reason: reason})
	return nil
}

func (r *Repository) Deleted() []Deleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Deleted(nil), r.deleted...)
}

func RandomDevice(userId string) devices.Device {
	return devices.Device{
		Id:       test.RandomId(),
		UserId:   userId,
		FcmToken: test.Faker.Lorem().Text(64),
		Platform: test.Faker.RandomStringElement([]string{"ios", "android"}),
	}
}
