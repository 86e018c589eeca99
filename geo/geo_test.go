package geo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/caretrack/geo"
	"github.com/tidepool-org/caretrack/test"
)

var _ = Describe("Geo", func() {
	Describe("HaversineDistance", func() {
		It("is zero for identical points", func() {
			for i := 0; i < 20; i++ {
				lat, lng := test.RandomLatitude(), test.RandomLongitude()
				Expect(geo.HaversineDistance(lat, lng, lat, lng)).To(BeZero())
			}
		})

		It("is symmetric", func() {
			for i := 0; i < 20; i++ {
				lat1, lng1 := test.RandomLatitude(), test.RandomLongitude()
				lat2, lng2 := test.RandomLatitude(), test.RandomLongitude()
				Expect(geo.HaversineDistance(lat1, lng1, lat2, lng2)).
					To(BeNumerically("~", geo.HaversineDistance(lat2, lng2, lat1, lng1), 1e-6))
			}
		})

		It("returns about 111195m for one degree of longitude on the equator", func() {
			Expect(geo.HaversineDistance(0, 0, 0, 1)).To(BeNumerically("~", 111195, 1111.95))
		})

		It("returns a quarter of the circumference for 90 degrees on the equator", func() {
			Expect(geo.HaversineDistance(0, 0, 0, 90)).To(BeNumerically("~", 10007543.4, 1))
		})
	})

	Describe("CellKey", func() {
		It("is stable for identical input", func() {
			Expect(geo.LocationCellKey(10.76231, 106.66019)).To(Equal(geo.LocationCellKey(10.76231, 106.66019)))
		})

		It("buckets nearby points into the same cell", func() {
			Expect(geo.LocationCellKey(10.76231, 106.66019)).To(Equal(geo.LocationCellKey(10.76249, 106.66041)))
			Expect(geo.LocationCellKey(10.76231, 106.66019)).To(Equal("10762_106660"))
		})

		It("separates points in different cells", func() {
			Expect(geo.LocationCellKey(10.7623, 106.6602)).ToNot(Equal(geo.LocationCellKey(10.7643, 106.6602)))
		})

		It("handles negative coordinates", func() {
			Expect(geo.LocationCellKey(-33.86882, 151.20929)).To(Equal("-33869_151209"))
		})

		It("honours the precision", func() {
			Expect(geo.CellKey(1.23456, 2.34567, 1)).To(Equal("12_23"))
			Expect(geo.CellKey(1.23456, 2.34567, 4)).To(Equal("12346_23457"))
		})
	})
})
