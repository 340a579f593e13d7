package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
)

func testLoop() (*sim.Loop, *source.Switch, *source.Feed) {
	p := dynamo.DefaultParams()
	p.Width, p.Height = 32, 24
	p.Substeps = 2

	still, err := source.NewPattern("gray", p.Width, p.Height)
	Expect(err).NotTo(HaveOccurred())
	feed := source.NewFeed(p.Width, p.Height)
	sw := source.NewSwitch(still, feed)

	o, err := sim.New(p.Width, p.Height, compute.NewCPUBackend(), sw)
	Expect(err).NotTo(HaveOccurred())
	o.Reset(p)
	return sim.NewLoop(o, dynamo.NewParamStore(p), 60), sw, feed
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w; i++ {
		img.Set(i, i%h, color.White)
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Hub", func() {
	var (
		loop *sim.Loop
		sw   *source.Switch
		feed *source.Feed
		hub  *Hub
	)

	BeforeEach(func() {
		loop, sw, feed = testLoop()
		hub = NewHub(loop, sw, feed)
	})

	Describe("Handle", func() {
		It("sets parameters on the live store", func() {
			reply, err := hub.Handle(Msg{Type: "set", Name: "damping", Value: 0.3})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Type).To(Equal("set"))
			Expect(reply.Value).To(Equal(0.3))

			v, _ := loop.Params().Get("damping")
			Expect(v).To(Equal(0.3))
		})

		It("reports the clamped value", func() {
			reply, err := hub.Handle(Msg{Type: "set", Name: "mixRatio", Value: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Value).To(Equal(1.0))
		})

		It("rejects unknown parameters", func() {
			_, err := hub.Handle(Msg{Type: "set", Name: "mass", Value: 1})
			Expect(err).To(MatchError(dynamo.ErrUnknownParam))
		})

		It("pauses and resumes the loop", func() {
			_, err := hub.Handle(Msg{Type: "pause"})
			Expect(err).NotTo(HaveOccurred())
			Expect(loop.Paused()).To(BeTrue())

			_, err = hub.Handle(Msg{Type: "resume"})
			Expect(err).NotTo(HaveOccurred())
			Expect(loop.Paused()).To(BeFalse())
		})

		It("resets at the next frame boundary", func() {
			_, err := loop.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(loop.Orchestrator().Time()).To(BeNumerically(">", 0))

			_, err = hub.Handle(Msg{Type: "reset"})
			Expect(err).NotTo(HaveOccurred())
			res, err := loop.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Time).To(BeZero())
		})

		It("switches sources", func() {
			reply, err := hub.Handle(Msg{Type: "source", Mode: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(sw.Mode()).To(Equal(source.Secondary))
			Expect(reply.Mode).To(Equal(1))
		})

		It("rejects unknown message types", func() {
			_, err := hub.Handle(Msg{Type: "explode"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects source commands without a switch", func() {
			bare := NewHub(loop, nil, nil)
			_, err := bare.Handle(Msg{Type: "source", Mode: 1})
			Expect(err).To(HaveOccurred())
			_, err = bare.Upload(pngBytes(4, 4))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Upload", func() {
		It("pushes decoded images to the feed", func() {
			_, err := feed.Frame()
			Expect(err).To(MatchError(dynamo.ErrSourceUnavailable))

			reply, err := hub.Upload(pngBytes(64, 48))
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Type).To(Equal("uploaded"))
			Expect(reply.Content).To(Equal("png 64x48"))

			img, err := feed.Frame()
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(32))
			Expect(img.Bounds().Dy()).To(Equal(24))
			Expect(feed.Name()).To(Equal("upload:png"))
		})

		It("rejects data that is not an image", func() {
			_, err := hub.Upload([]byte("not an image"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("websocket", func() {
		var (
			ts   *httptest.Server
			conn *websocket.Conn
		)

		BeforeEach(func() {
			s := NewServer(":0", websocket.Upgrader{}, hub)
			ts = httptest.NewServer(s.Handler())

			var err error
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err = websocket.DefaultDialer.Dial(url, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		})

		AfterEach(func() {
			conn.Close()
			ts.Close()
		})

		readJSON := func() Msg {
			kind, data, err := conn.ReadMessage()
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(websocket.TextMessage))
			var msg Msg
			Expect(json.Unmarshal(data, &msg)).To(Succeed())
			return msg
		}

		It("answers commands and reports errors", func() {
			Expect(conn.WriteJSON(Msg{Type: "set", Name: "gamma", Value: 0.5})).To(Succeed())
			Expect(readJSON().Type).To(Equal("set"))

			Expect(conn.WriteJSON(Msg{Type: "set", Name: "nope", Value: 1})).To(Succeed())
			reply := readJSON()
			Expect(reply.Type).To(Equal("error"))
			Expect(reply.Content).To(ContainSubstring("unknown parameter"))

			Expect(conn.WriteMessage(websocket.TextMessage, []byte("{"))).To(Succeed())
			Expect(readJSON().Type).To(Equal("error"))
		})

		It("accepts binary uploads", func() {
			Expect(conn.WriteMessage(websocket.BinaryMessage, pngBytes(8, 8))).To(Succeed())
			Expect(readJSON().Type).To(Equal("uploaded"))

			_, err := feed.Frame()
			Expect(err).NotTo(HaveOccurred())
		})

		It("streams each frame as png then stats", func() {
			Expect(conn.WriteJSON(Msg{Type: "resume"})).To(Succeed())
			Expect(readJSON().Type).To(Equal("resumed"))
			Expect(hub.Clients()).To(Equal(1))

			loop.OnFrame(hub.Broadcast)
			_, err := loop.Tick()
			Expect(err).NotTo(HaveOccurred())

			kind, data, err := conn.ReadMessage()
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(websocket.BinaryMessage))
			img, err := png.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(32))
			Expect(img.Bounds().Dy()).To(Equal(24))

			stats := readJSON()
			Expect(stats.Type).To(Equal("stats"))
			Expect(stats.Stats).NotTo(BeNil())
			Expect(stats.Stats.Frame).To(Equal(0))
			Expect(stats.Stats.Source).To(Equal(sw.Name()))
			Expect(stats.Stats.Probability).To(BeNumerically(">", 0))
		})

		It("drops the client on disconnect", func() {
			Expect(conn.WriteJSON(Msg{Type: "pause"})).To(Succeed())
			Expect(readJSON().Type).To(Equal("paused"))
			Expect(hub.Clients()).To(Equal(1))

			conn.Close()
			Eventually(hub.Clients).Should(BeZero())
		})
	})
})
