// Command zoned is the authoritative DNSSEC nameserver's entrypoint: it
// wires together config, zone loading, signing and the responder, then
// serves UDP and TCP, following tdnsd/main.go's parse-config-then-serve
// shape with its own SIGHUP-triggered reload in place of tdnsd's refresh
// engine.
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/zoneauth/zoneauth/config"
	"github.com/zoneauth/zoneauth/debugsrv"
	"github.com/zoneauth/zoneauth/denial"
	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/logging"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/responder"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/signer"
	"github.com/zoneauth/zoneauth/zone"
)

// snapshot bundles the zone tree with the denial chain built over it, so a
// --reload swap replaces both atomically; the signer is unaffected by a
// zone reload since keys don't change underneath it.
type snapshot struct {
	zone  *zone.Zone
	chain denial.Chain
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("zoned", pflag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logging.Setup("", cfg.Debug)
	log.Printf("zoned starting: zone=%s file=%s bind=%s:%d", cfg.Zone, cfg.File, cfg.Bind, cfg.Port)

	apex, err := dname.Parse(cfg.Zone)
	if err != nil {
		log.Printf("invalid zone name %q: %v", cfg.Zone, err)
		return 1
	}

	sig, err := loadSigner(cfg)
	if err != nil {
		log.Printf("loading signing keys: %v", err)
		return 1
	}
	if sig != nil {
		printDS(apex, sig.KSK)
	}

	snap, err := loadSnapshot(cfg, apex)
	if err != nil {
		log.Printf("loading zone: %v", err)
		return 1
	}

	var cur atomic.Pointer[snapshot]
	cur.Store(snap)
	zoneFn := func() *zone.Zone { return cur.Load().zone }

	if cfg.Debug {
		var ksk *signer.Key
		if sig != nil {
			ksk = sig.KSK
		}
		srv := debugsrv.New(zoneFn, ksk)
		go func() {
			if err := http.ListenAndServe(cfg.DebugAddr, srv); err != nil {
				log.Printf("debug server exited: %v", err)
			}
		}()
		log.Printf("debug surface listening on %s", cfg.DebugAddr)
	}

	reload := func() {
		next, err := loadSnapshot(cfg, apex)
		if err != nil {
			log.Printf("reload failed, keeping previous zone: %v", err)
			return
		}
		cur.Store(next)
		log.Printf("zone %s reloaded", cfg.Zone)
	}

	if cfg.Reload {
		go watchFile(cfg.File, reload)
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			log.Println("SIGHUP received, reloading zone")
			reload()
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	errCh := make(chan error, cfg.Thread+1)

	for i := 0; i < cfg.Thread; i++ {
		go serveUDP(addr, &cur, sig, errCh)
	}
	go serveTCP(addr, &cur, sig, errCh)

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Printf("fatal: %v", err)
		return 1
	case s := <-term:
		log.Printf("received %v, shutting down", s)
		return 0
	}
}

func loadSigner(cfg *config.Config) (*signer.Signer, error) {
	if cfg.KSK == "" {
		return nil, nil
	}
	kskBytes, err := os.ReadFile(cfg.KSK)
	if err != nil {
		return nil, fmt.Errorf("reading ksk file: %w", err)
	}
	ksk, err := signer.LoadKeyFile(kskBytes, signer.KSKFlag)
	if err != nil {
		return nil, fmt.Errorf("loading ksk: %w", err)
	}
	zskBytes, err := os.ReadFile(cfg.ZSK)
	if err != nil {
		return nil, fmt.Errorf("reading zsk file: %w", err)
	}
	zsk, err := signer.LoadKeyFile(zskBytes, signer.ZSKFlag)
	if err != nil {
		return nil, fmt.Errorf("loading zsk: %w", err)
	}
	apex, err := dname.Parse(cfg.Zone)
	if err != nil {
		return nil, err
	}
	return signer.New(apex, ksk, zsk, signer.DefaultPolicy), nil
}

func printDS(apex dname.Name, ksk *signer.Key) {
	if ksk == nil {
		return
	}
	for _, digestType := range []uint8{2, 1} {
		ds, err := ksk.DSDigest(apex.CanonicalWire(), digestType)
		if err != nil {
			continue
		}
		fmt.Printf("%s IN DS %s\n", apex, ds.String())
	}
}

func loadSnapshot(cfg *config.Config, apex dname.Name) (*snapshot, error) {
	f, err := os.Open(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("opening zone file: %w", err)
	}
	defer f.Close()

	var z *zone.Zone
	if strings.EqualFold(filepath.Ext(cfg.File), ".yaml") || strings.EqualFold(filepath.Ext(cfg.File), ".yml") {
		z, err = zone.LoadYAML(f, apex)
	} else {
		z, err = zone.LoadMasterfile(f, apex)
	}
	if err != nil {
		return nil, err
	}

	z.Signed = cfg.KSK != ""
	if z.Signed {
		if cfg.NSEC3 {
			z.Denial = zone.DenialNSEC3
			z.NSEC3 = zone.NSEC3Params{HashAlgorithm: cfg.HashAlgo, Iterations: cfg.Iterate, Salt: cfg.SaltBytes()}
			if apexNode, ok := z.Node(apex); ok && !apexNode.HasType(rdata.TypeNSEC3PARAM) {
				param, err := rrset.New(apex, rdata.TypeNSEC3PARAM, z.NegativeTTL(),
					&rdata.NSEC3PARAM{HashAlgorithm: cfg.HashAlgo, Iterations: cfg.Iterate, Salt: cfg.SaltBytes()})
				if err != nil {
					return nil, err
				}
				apexNode.Set(param)
			}
		} else {
			z.Denial = zone.DenialNSEC
		}
	}

	var chain denial.Chain
	switch z.Denial {
	case zone.DenialNSEC:
		chain = denial.BuildNSEC(z)
	case zone.DenialNSEC3:
		chain = denial.BuildNSEC3(z)
	}
	return &snapshot{zone: z, chain: chain}, nil
}

func watchFile(path string, reload func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("reload watcher disabled: %v", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("reload watcher disabled: %v", err)
		return
	}
	target := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("zone watcher error: %v", err)
		}
	}
}

const udpReadBufSize = 4096

func serveUDP(addr string, cur *atomic.Pointer[snapshot], sig *signer.Signer, errCh chan<- error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		errCh <- fmt.Errorf("udp: %w", err)
		return
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		errCh <- fmt.Errorf("udp: %w", err)
		return
	}
	defer conn.Close()

	buf := make([]byte, udpReadBufSize)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			errCh <- fmt.Errorf("udp read: %w", err)
			return
		}
		reqCopy := append([]byte(nil), buf[:n]...)
		snap := cur.Load()
		out, ok := responder.HandleRaw(snap.zone, sig, snap.chain, reqCopy, true, udpReadBufSize)
		if !ok {
			continue
		}
		if _, err := conn.WriteToUDP(out, raddr); err != nil {
			log.Printf("udp write to %s: %v", raddr, err)
		}
	}
}

func serveTCP(addr string, cur *atomic.Pointer[snapshot], sig *signer.Signer, errCh chan<- error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		errCh <- fmt.Errorf("tcp: %w", err)
		return
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			errCh <- fmt.Errorf("tcp accept: %w", err)
			return
		}
		go handleTCPConn(conn, cur, sig)
	}
}

func handleTCPConn(conn net.Conn, cur *atomic.Pointer[snapshot], sig *signer.Signer) {
	defer conn.Close()
	var lenBuf [2]byte
	for {
		if _, err := readFull(conn, lenBuf[:]); err != nil {
			return
		}
		msgLen := int(lenBuf[0])<<8 | int(lenBuf[1])
		msg := make([]byte, msgLen)
		if _, err := readFull(conn, msg); err != nil {
			return
		}
		snap := cur.Load()
		out, ok := responder.HandleRaw(snap.zone, sig, snap.chain, msg, false, 0)
		if !ok {
			return
		}
		reply := make([]byte, 2+len(out))
		reply[0] = byte(len(out) >> 8)
		reply[1] = byte(len(out))
		copy(reply[2:], out)
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
