package utils

import (
	"testing"

	"go.viam.com/test"
)

type pinsConfig struct {
	ChipSelect string `json:"chip_select"`
	Clock      string `json:"clock"`
	BusyPolls  int    `json:"busy_polls,omitempty"`
}

func TestTransformAttributeMap(t *testing.T) {
	conf, err := TransformAttributeMap[pinsConfig](AttributeMap{
		"chip_select": "10",
		"clock":       "14",
		// json numbers decode as float64
		"busy_polls": float64(3),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, pinsConfig{ChipSelect: "10", Clock: "14", BusyPolls: 3})

	_, err = TransformAttributeMap[pinsConfig](AttributeMap{"chip_selcet": "10"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "chip_selcet")

	ptr, err := TransformAttributeMap[*pinsConfig](AttributeMap{"clock": 14})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ptr.Clock, test.ShouldEqual, "14")

	am := AttributeMap{"clock": "14"}
	test.That(t, am.Has("clock"), test.ShouldBeTrue)
	test.That(t, am.Has("data_in"), test.ShouldBeFalse)
}
