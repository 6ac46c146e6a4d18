package isp

// ReadSignature reads the three signature bytes in index order.
func (p *Programmer) ReadSignature() ([3]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read signature"); err != nil {
		return [3]byte{}, err
	}
	return p.readSignature(), nil
}

func (p *Programmer) readSignature() [3]byte {
	var sig [3]byte
	for i := range sig {
		sig[i] = p.bus.SendInstruction(opReadSignature, 0x00, byte(i), 0x00)
	}
	return sig
}

// ReadCalibrationByte reads the factory calibration of the internal RC
// oscillator.
func (p *Programmer) ReadCalibrationByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read calibration byte"); err != nil {
		return 0, err
	}
	return p.bus.SendInstruction(opReadCalibration, 0x00, 0x00, 0x00), nil
}

// Identify reads the signature and looks it up in the device table.
func (p *Programmer) Identify() (Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("identify"); err != nil {
		return Device{}, err
	}
	return p.identify()
}

func (p *Programmer) identify() (Device, error) {
	sig := p.readSignature()
	dev, found := LookupDevice(sig)
	if !found {
		return Device{}, &UnknownDeviceError{Signature: sig}
	}
	p.logger.Info("Device identified", "device", dev.Name, "signature", dev.SignatureString())
	return dev, nil
}
