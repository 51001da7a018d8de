// Package sdep provides SDEP protocol support over a single-master SPI link.
package sdep

// SDEP messages are exchanged between the host (master) and a peripheral
// that is not always ready to clock data. Every byte is sent inside its own
// chip-select frame. The peripheral answers BUSY (0xfe) when the byte was not
// taken and the master retries after a short pacing delay. While reading, an
// END_OF_DATA (0xff) byte terminates the transfer early.
//
// A message is a 4-byte header (type, correlation id low, correlation id high,
// length) followed by length payload bytes. There's no checksum.
//
// Producer: host bridge (commands)
// Consumer: peripheral firmware (responses, alerts, errors)
