package cpucontext

// VU0State models the macro-mode VU0 register file the EE can address
// directly: the vector file, integer registers, and the handful of
// control/status registers macro-mode code reads. VU0's own microprogram
// execution is not interpreted; RunMicroprogram below stands in for it.
type VU0State struct {
	VF [32][4]float32
	VI [16]uint16

	Q, P, I, R float32
	ACC        [4]float32

	StatusFlag uint16
	MACFlag    uint16
	ClipFlag   [2]uint32

	CMSAR [4]uint32
	VPUStat uint32

	TPC, FBRST, ITOP, TOP, INFO, XITOP, PC uint32

	CF [4]uint32
}

// RunMicroprogram stands in for VU0 microcode interpretation, which this
// runtime does not do. Titles that start a VU0 microprogram (via VCALLMS et
// al.) still need the macro-mode state to settle into something
// deterministic afterward, so this clears the flag registers and resets
// Q to the FPU identity value a just-started program would read before
// its first division.
func (v *VU0State) RunMicroprogram() {
	v.StatusFlag = 0
	v.MACFlag = 0
	v.ClipFlag[0] = 0
	v.ClipFlag[1] = 0
	v.Q = 1.0
}
