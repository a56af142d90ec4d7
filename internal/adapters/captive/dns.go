package captive

import (
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

// AnswerTTL is the TTL of every redirect answer, in seconds.
const AnswerTTL = 60

const (
	maxDNSMessage = 1500
	// readBackoff is slept after each failed read.
	readBackoff = 100 * time.Millisecond
)

// DNSResponder answers every A query with one address.
type DNSResponder struct {
	conn  net.PacketConn
	ip    net.IP
	done  chan struct{}
	sleep func(time.Duration)
}

// ListenDNS binds addr (UDP) and starts answering with ip.
func ListenDNS(addr string, ip net.IP) (*DNSResponder, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("redirect address %v is not IPv4", ip)
	}
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen dns %s: %w", addr, err)
	}
	return startDNS(conn, ip4), nil
}

func startDNS(conn net.PacketConn, ip net.IP) *DNSResponder {
	r := &DNSResponder{conn: conn, ip: ip, done: make(chan struct{}), sleep: time.Sleep}
	go r.serve()
	return r
}

// Addr is the bound UDP address.
func (r *DNSResponder) Addr() net.Addr {
	return r.conn.LocalAddr()
}

func (r *DNSResponder) serve() {
	defer close(r.done)
	buf := make([]byte, maxDNSMessage)
	failures := 0
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			failures++
			if failures == 1 || failures%10 == 0 {
				log.Printf("[CAPTIVE] DNS read failed: %v (consecutive errors: %d)", err, failures)
			}
			r.sleep(readBackoff)
			continue
		}
		failures = 0
		reply, ok := Answer(buf[:n], r.ip)
		if !ok {
			continue
		}
		telemetry.DNSQueries.Inc()
		if _, err := r.conn.WriteTo(reply, from); err != nil {
			log.Printf("[CAPTIVE] DNS reply to %v failed: %v", from, err)
		}
	}
}

// Close stops the responder and waits for the read loop.
func (r *DNSResponder) Close() error {
	err := r.conn.Close()
	<-r.done
	return err
}

// Answer builds the reply to query with every IN A question pointed at ip.
// Other questions get no answer. Responses and malformed input are ignored.
func Answer(query []byte, ip net.IP) ([]byte, bool) {
	var msg layers.DNS
	if err := msg.DecodeFromBytes(query, gopacket.NilDecodeFeedback); err != nil {
		return nil, false
	}
	if msg.QR || msg.OpCode != layers.DNSOpCodeQuery {
		return nil, false
	}

	msg.QR = true
	msg.AA = true
	msg.RA = false
	msg.ResponseCode = layers.DNSResponseCodeNoErr
	msg.Answers = nil
	msg.Authorities = nil
	msg.Additionals = nil
	for _, q := range msg.Questions {
		if q.Type != layers.DNSTypeA || q.Class != layers.DNSClassIN {
			continue
		}
		msg.Answers = append(msg.Answers, layers.DNSResourceRecord{
			Name:  q.Name,
			Type:  layers.DNSTypeA,
			Class: layers.DNSClassIN,
			TTL:   AnswerTTL,
			IP:    ip,
		})
	}

	buf := gopacket.NewSerializeBuffer()
	if err := msg.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
