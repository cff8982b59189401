package actuator

import (
	"github.com/sirupsen/logrus"
)

var fakeLog = logrus.WithFields(logrus.Fields{
	"pkg": "actuator.fake",
})

// FakeSerial is an io.ReadWriteCloser stand-in for a real Dynamixel bus,
// adapted from the teacher's fake/serial/fake_serial.go so tests can build
// a real *network.Network (and therefore a real *Actuator) without any
// hardware attached. Read always returns EOF-free zero bytes rather than
// blocking, since nothing in this pipeline actually parses servo replies
// synchronously outside of New's Ping/SetReturnLevel calls, which the
// caller is expected to skip against a fake bus.
type FakeSerial struct{}

func (s FakeSerial) Read(p []byte) (n int, err error) {
	fakeLog.Debugf("read %d bytes", len(p))
	return 0, nil
}

func (s FakeSerial) Write(p []byte) (n int, err error) {
	fakeLog.Debugf("write: %v", p)
	return len(p), nil
}

func (s FakeSerial) Close() error {
	fakeLog.Debugf("close")
	return nil
}
