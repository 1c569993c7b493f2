// Package export turns a locked DayLog into a signed JSON packet and delivers
// it to the configured endpoint.
//
// BuildPacket is pure apart from minting a fresh export id. HTTPTransport
// posts the stored packet bytes unchanged so the signature computed at
// delivery time always matches what the receiver sees. Delivery outcomes are
// classified as delivered, permanent, or transient; the sync engine in
// internal/exportsync decides what to do with each.
package export
