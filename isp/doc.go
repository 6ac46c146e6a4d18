// Package isp implements the AVR serial programming protocol over a
// bit-banged 4-wire link (SCK, MOSI, MISO, RESET).
//
// A Programmer owns one hal.Link. Begin pulses RESET and sends the
// Programming Enable instruction until the target echoes it, after which
// flash, fuse, lock, signature and calibration operations may be issued.
// End releases RESET and lets the target run again.
//
//	link := hal.NewRPIOLink(conf.Link.Pins)
//	prog, err := isp.New(link, isp.WithTargetClock(1_000_000))
//	if err != nil {
//	    return err
//	}
//	defer prog.Close()
//	if err := prog.Begin(ctx); err != nil {
//	    return err
//	}
//	defer prog.End()
//	sig, err := prog.ReadSignature()
//
// A host program usually builds the link from the configuration file:
// config.ReadConfig, then logging.Init with its Logging section, then
// hal.Open with its Link section, then New with OptionsFromConfig. See the
// package example.
//
// All calls are synchronous. Operations that wait on the target's RDY/BSY
// flag take a context; context.Background() keeps the unbounded wait of the
// datasheet, a deadline turns a hung target into a *TimeoutError.
package isp
