package push_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/devices"
	devicesTest "github.com/tidepool-org/caretrack/devices/test"
	"github.com/tidepool-org/caretrack/push"
	pushTest "github.com/tidepool-org/caretrack/push/test"
	"github.com/tidepool-org/caretrack/test"
)

var _ = Describe("Dispatcher", func() {
	var ctrl *gomock.Controller
	var sender *pushTest.MockSender
	var userId string
	var notification push.Notification

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		sender = pushTest.NewMockSender(ctrl)
		userId = test.RandomId()
		notification = push.Notification{
			Title: "Safe Zone Alert",
			Body:  `Patient has left the safe zone "Home"`,
			Data:  map[string]string{"type": "safe_zone_exit", "channelId": push.ChannelSafeZoneAlerts},
		}
	})

	newDispatcher := func(repo devices.Repository) push.Dispatcher {
		return push.NewDispatcher(repo, sender, zap.NewNop().Sugar())
	}

	It("returns zero when the user has no devices", func() {
		repo := devicesTest.NewRepository()
		Expect(newDispatcher(repo).SendToUser(context.Background(), userId, notification)).To(Equal(0))
	})

	It("sends to every device with a token", func() {
		first := devicesTest.RandomDevice(userId)
		second := devicesTest.RandomDevice(userId)
		empty := devicesTest.RandomDevice(userId)
		empty.FcmToken = ""
		other := devicesTest.RandomDevice(test.RandomId())
		repo := devicesTest.NewRepository(first, second, empty, other)

		sender.EXPECT().Send(gomock.Any(), first.FcmToken, notification).Return("message-1", nil)
		sender.EXPECT().Send(gomock.Any(), second.FcmToken, notification).Return("message-2", nil)

		Expect(newDispatcher(repo).SendToUser(context.Background(), userId, notification)).To(Equal(2))
		Expect(repo.Deleted()).To(BeEmpty())
	})

	It("removes devices with unregistered or malformed tokens", func() {
		healthy := devicesTest.RandomDevice(userId)
		unregistered := devicesTest.RandomDevice(userId)
		malformed := devicesTest.RandomDevice(userId)
		repo := devicesTest.NewRepository(healthy, unregistered, malformed)

		sender.EXPECT().Send(gomock.Any(), healthy.FcmToken, test.Match(func(n push.Notification) bool {
			return n.ChannelId() == push.ChannelSafeZoneAlerts
		})).Return("message-1", nil)
		sender.EXPECT().Send(gomock.Any(), unregistered.FcmToken, gomock.Any()).
			Return("", fmt.Errorf("%w: requested entity was not found", push.ErrTokenNotRegistered))
		sender.EXPECT().Send(gomock.Any(), malformed.FcmToken, gomock.Any()).
			Return("", fmt.Errorf("%w: invalid token", push.ErrInvalidToken))

		Expect(newDispatcher(repo).SendToUser(context.Background(), userId, notification)).To(Equal(1))

		deleted := repo.Deleted()
		Expect(deleted).To(ConsistOf(
			devicesTest.Deleted{Device: unregistered, Reason: "registration-token-not-registered"},
			devicesTest.Deleted{Device: malformed, Reason: "invalid-registration-token"},
		))
	})

	It("keeps devices after transient failures", func() {
		device := devicesTest.RandomDevice(userId)
		repo := devicesTest.NewRepository(device)

		sender.EXPECT().Send(gomock.Any(), device.FcmToken, gomock.Any()).Return("", errors.New("unavailable"))

		Expect(newDispatcher(repo).SendToUser(context.Background(), userId, notification)).To(Equal(0))
		Expect(repo.Deleted()).To(BeEmpty())
	})
})

var _ = Describe("NewMessage", func() {
	It("sets high android priority and the channel from the data", func() {
		message := push.NewMessage("token", push.Notification{
			Title: "Watch Disconnected",
			Body:  "The paired watch has been disconnected for over 10 minutes.",
			Data:  map[string]string{"channelId": push.ChannelWatchStatus},
		})

		Expect(message.Token).To(Equal("token"))
		Expect(message.Notification.Title).To(Equal("Watch Disconnected"))
		Expect(message.Android.Priority).To(Equal("high"))
		Expect(message.Android.Notification.ChannelID).To(Equal("watch_status"))
	})

	It("defaults to the safe zone channel", func() {
		message := push.NewMessage("token", push.Notification{Title: "t", Body: "b"})
		Expect(message.Android.Notification.ChannelID).To(Equal("safe_zone_alerts"))
	})
})
