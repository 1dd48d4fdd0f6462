// Package ingest turns pcap files into the packet records the estimation
// tasks consume. It is the only place raw bytes are parsed; everything
// downstream works on model.Packet.
package ingest

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"StreamSketch/internal/metrics"
	"StreamSketch/internal/model"
)

// Reader reads packets from a pcap file.
type Reader struct {
	file *os.File
	r    *pcapgo.Reader
}

// NewReader opens a pcap file for reading.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &Reader{file: f, r: r}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadPackets reads all packets from the file and sends the parsed records
// to out. Unparseable packets are counted and skipped. The channel is
// closed when the file is exhausted.
func (r *Reader) ReadPackets(out chan<- *model.Packet) {
	defer close(out)
	for {
		data, ci, err := r.r.ReadPacketData()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("Error reading packet data: %v", err)
			return
		}
		metrics.PacketsIngested.Inc()

		pkt, err := ParsePacket(data, ci.Timestamp)
		if err != nil {
			metrics.ParseErrors.Inc()
			continue
		}
		out <- pkt
	}
}

// ParsePacket decodes a raw Ethernet frame and extracts the fields tasks
// build keys from. Non-IPv4 and non-TCP/UDP packets are rejected.
func ParsePacket(data []byte, timestamp time.Time) (*model.Packet, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)

	pkt := &model.Packet{
		Timestamp: timestamp,
		Length:    len(data),
	}
	if pkt.Timestamp.IsZero() {
		pkt.Timestamp = time.Now()
	}

	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		pkt.SrcIP = ip.SrcIP
		pkt.DstIP = ip.DstIP
		pkt.Protocol = uint8(ip.Protocol)
	} else {
		return nil, fmt.Errorf("not an IPv4 packet")
	}

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		pkt.SrcPort = uint16(tcp.SrcPort)
		pkt.DstPort = uint16(tcp.DstPort)
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		pkt.SrcPort = uint16(udp.SrcPort)
		pkt.DstPort = uint16(udp.DstPort)
	} else {
		return nil, fmt.Errorf("not a TCP or UDP packet")
	}

	return pkt, nil
}
