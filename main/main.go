package main

import (
	"bytes"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/codecs"
)

func frame() (*flexus.Schema, error) {
	s := flexus.New()
	if err := s.SetField("length", flexus.NewField(codecs.UInt32(nil))); err != nil {
		return nil, err
	}
	if err := s.SetField("data", flexus.NewField(codecs.Blob())); err != nil {
		return nil, err
	}
	if err := s.SetField("tail", flexus.NewField(codecs.Int32(nil))); err != nil {
		return nil, err
	}
	if err := s.LinkLength("data", "length"); err != nil {
		return nil, err
	}
	return s, nil
}

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	s, err := frame()
	if err != nil {
		log.Fatal(err)
	}
	rec := flexus.NewRecord().
		Set("data", bytes.Repeat([]byte("flexus"), 64)).
		Set("tail", int32(7))
	for i := 0; i < 10000; i++ {
		data, _ := s.Pack(rec)
		_, _ = s.Unpack(data)
	}
	pprof.WriteHeapProfile(f)
	time.Sleep(5 * time.Minute)
}
