package bus

import (
	"reflect"

	gomock "github.com/golang/mock/gomock"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

// MockPU is a hand-written stand-in for a mockgen-generated mock of
// pu.PU, used where a test needs to control a sub-PU's admission and
// endpoint behavior directly rather than driving it through a real PU.
type MockPU struct {
	ctrl     *gomock.Controller
	recorder *MockPUMockRecorder
}

type MockPUMockRecorder struct {
	mock *MockPU
}

func NewMockPU(ctrl *gomock.Controller) *MockPU {
	mock := &MockPU{ctrl: ctrl}
	mock.recorder = &MockPUMockRecorder{mock}
	return mock
}

func (m *MockPU) EXPECT() *MockPUMockRecorder {
	return m.recorder
}

func (m *MockPU) Tag() string {
	ret := m.ctrl.Call(m, "Tag")
	ret0, _ := ret[0].(string)
	return ret0
}

func (mr *MockPUMockRecorder) Tag() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Tag", reflect.TypeOf((*MockPU)(nil).Tag))
}

func (m *MockPU) TryBind(f *ir.Function) (pu.PU, error) {
	ret := m.ctrl.Call(m, "TryBind", f)
	ret0, _ := ret[0].(pu.PU)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockPUMockRecorder) TryBind(f interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TryBind", reflect.TypeOf((*MockPU)(nil).TryBind), f)
}

func (m *MockPU) EndpointOptions() []pu.EndpointOption {
	ret := m.ctrl.Call(m, "EndpointOptions")
	ret0, _ := ret[0].([]pu.EndpointOption)
	return ret0
}

func (mr *MockPUMockRecorder) EndpointOptions() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EndpointOptions", reflect.TypeOf((*MockPU)(nil).EndpointOptions))
}

func (m *MockPU) EndpointDecision(d pu.EndpointDecision) (pu.PU, error) {
	ret := m.ctrl.Call(m, "EndpointDecision", d)
	ret0, _ := ret[0].(pu.PU)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockPUMockRecorder) EndpointDecision(d interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EndpointDecision", reflect.TypeOf((*MockPU)(nil).EndpointDecision), d)
}

func (m *MockPU) Process() *process.Record {
	ret := m.ctrl.Call(m, "Process")
	ret0, _ := ret[0].(*process.Record)
	return ret0
}

func (mr *MockPUMockRecorder) Process() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Process", reflect.TypeOf((*MockPU)(nil).Process))
}

func (m *MockPU) MicrocodeAt(t value.Tick) pu.MicrocodeWord {
	ret := m.ctrl.Call(m, "MicrocodeAt", t)
	ret0, _ := ret[0].(pu.MicrocodeWord)
	return ret0
}

func (mr *MockPUMockRecorder) MicrocodeAt(t interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MicrocodeAt", reflect.TypeOf((*MockPU)(nil).MicrocodeAt), t)
}

func (m *MockPU) Locks() []ir.Lock {
	ret := m.ctrl.Call(m, "Locks")
	ret0, _ := ret[0].([]ir.Lock)
	return ret0
}

func (mr *MockPUMockRecorder) Locks() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Locks", reflect.TypeOf((*MockPU)(nil).Locks))
}
