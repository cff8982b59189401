package actuator

import (
	"testing"

	"github.com/adammck/dynamixel/network"
	"github.com/stretchr/testify/assert"

	"github.com/deeplearning2012/syropod-highlevel-controller/model"
)

func oneJointModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New()
	leg := &model.Leg{
		IDNumber: 0,
		IDName:   "FL",
		Joints:   []*model.Joint{{Name: "FL_coxa", ServoID: 7, DesiredPosition: 12}},
	}
	assert.NoError(t, m.AddLeg(leg))
	return m
}

// A joint whose servo was never registered (arming failed, or a test rig
// without hardware) is skipped rather than failing the tick.
func TestPublishSkipsUnregisteredServos(t *testing.T) {
	m := oneJointModel(t)
	a := &Actuator{Network: network.New(FakeSerial{})}
	assert.NoError(t, a.Publish(m))
}

func TestFakeSerialNeverBlocksOrErrors(t *testing.T) {
	var s FakeSerial

	n, err := s.Write([]byte{0xFF, 0xFF, 0xFE, 0x02, 0x05, 0xFA})
	assert.NoError(t, err)
	assert.Equal(t, 6, n)

	buf := make([]byte, 16)
	n, err = s.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.NoError(t, s.Close())
}
