package push_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/caretrack/push"
)

var _ = Describe("ClassifyError", func() {
	It("classifies unregistered tokens as permanent failures", func() {
		err := push.ClassifyError(errors.New("Requested entity was not found."), push.ErrorCodeTokenNotRegistered)
		Expect(err).To(MatchError(push.ErrTokenNotRegistered))
		Expect(push.IsPermanentFailure(err)).To(BeTrue())
	})

	It("classifies malformed tokens as permanent failures", func() {
		cause := errors.New("The registration token is not a valid FCM registration token")
		err := push.ClassifyError(cause, push.ErrorCodeInvalidArgument)
		Expect(err).To(MatchError(push.ErrInvalidToken))
		Expect(push.IsPermanentFailure(err)).To(BeTrue())
	})

	It("keeps the device when the payload is rejected", func() {
		cause := errors.New("Message is too big")
		err := push.ClassifyError(cause, push.ErrorCodeInvalidArgument)
		Expect(err).To(Equal(cause))
		Expect(push.IsPermanentFailure(err)).To(BeFalse())
	})

	It("passes other failures through", func() {
		cause := errors.New("internal error")
		err := push.ClassifyError(cause, "")
		Expect(err).To(Equal(cause))
		Expect(push.IsPermanentFailure(err)).To(BeFalse())
	})
})
