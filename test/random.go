package test

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"
)

var (
	Faker  = faker.NewWithSeed(Source)
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
)

func RandomId() string {
	return uuid.NewString()
}

func RandomLatitude() float64 {
	return Faker.Address().Latitude()
}

func RandomLongitude() float64 {
	return Faker.Address().Longitude()
}
