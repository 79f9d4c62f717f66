package sim_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/record"
	"github.com/djdv/go-pagereplace/internal/sim"
	"github.com/djdv/go-pagereplace/internal/trace"
)

var _ = Describe("Runner", func() {
	var (
		mockCtrl *gomock.Controller
		sink     *MockSink
		runner   *sim.Runner
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sink = NewMockSink(mockCtrl)
		var err error
		runner, err = sim.New(sim.Config{
			Kind:     pagereplace.KindAging,
			Capacity: 5,
			Tick:     150 * time.Millisecond,
			Run:      "test",
			Sink:     sink,
		})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record every access in order", func() {
		var steps []record.Step
		sink.EXPECT().
			Record(gomock.Any()).
			DoAndReturn(func(step record.Step) error {
				steps = append(steps, step)
				return nil
			}).
			Times(4)

		err := runner.Run(context.Background(), trace.Reads(1, 2, 1, 3))

		Expect(err).ToNot(HaveOccurred())
		Expect(runner.Steps()).To(Equal(4))
		Expect(steps).To(HaveLen(4))
		for i, step := range steps {
			Expect(step.Index).To(Equal(i))
			Expect(step.Run).To(Equal("test"))
			Expect(step.Policy).To(Equal("aging"))
			Expect(step.Elapsed).To(Equal(time.Duration(i) * 150 * time.Millisecond))
		}
		Expect(steps[2].Event.Outcome).To(Equal(pagereplace.Hit))
		Expect(steps[3].Snapshot.Free).To(Equal(2))
	})

	It("should age units with the tick", func() {
		sink.EXPECT().Record(gomock.Any()).Return(nil).AnyTimes()

		Expect(runner.Run(context.Background(), trace.Reads(1, 2, 3, 4))).To(Succeed())

		snapshot := runner.Policy().Snapshot()
		Expect(snapshot.Inactive).To(Equal([]int{1}))
		Expect(snapshot.Active).To(Equal([]int{2, 3, 4}))
	})

	It("should stop when a step cannot be recorded", func() {
		errFull := errors.New("disk full")
		gomock.InOrder(
			sink.EXPECT().Record(gomock.Any()).Return(nil),
			sink.EXPECT().Record(gomock.Any()).Return(errFull),
		)

		err := runner.Run(context.Background(), trace.Reads(1, 2, 3))

		Expect(err).To(MatchError(errFull))
		Expect(err.Error()).To(ContainSubstring("step 1"))
		Expect(runner.Steps()).To(Equal(2))
	})

	It("should stop when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := runner.Run(ctx, trace.Reads(1, 2, 3))

		Expect(err).To(MatchError(context.Canceled))
		Expect(runner.Steps()).To(BeZero())
	})

	It("should flush the sink when summarizing", func() {
		sink.EXPECT().Record(gomock.Any()).Return(nil).Times(2)
		sink.EXPECT().Flush().Return(nil)

		Expect(runner.Run(context.Background(), trace.Reads(1, 1))).To(Succeed())
		Expect(runner.Summarize()).To(Succeed())
		Expect(runner.Policy().Stats().Hits).To(BeEquivalentTo(1))
	})

	It("should reject invalid configurations", func() {
		_, err := sim.New(sim.Config{Kind: pagereplace.KindTwoList})
		Expect(err).To(MatchError(pagereplace.ErrInvalidCapacity))

		_, err = sim.New(sim.Config{
			Kind:     pagereplace.KindTwoList,
			Capacity: 1,
			Tick:     -time.Second,
		})
		Expect(err).To(MatchError(pagereplace.ErrInvalidOption))
	})
})

var _ = Describe("Narration", func() {
	narrate := func(name string) string {
		demo, err := trace.LookupDemo(name)
		Expect(err).ToNot(HaveOccurred())
		kind, err := pagereplace.ParseKind(demo.Policy)
		Expect(err).ToNot(HaveOccurred())

		var buf bytes.Buffer
		runner, err := sim.New(sim.Config{
			Kind:     kind,
			Capacity: demo.Capacity,
			Tick:     demo.Tick,
			Run:      "demo",
			Logger:   sim.NewLogger(&buf, slog.LevelInfo),
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(runner.RunDemo(context.Background(), demo)).To(Succeed())
		Expect(runner.Summarize()).To(Succeed())
		Expect(runner.Steps()).To(Equal(len(demo.Accesses())))
		return buf.String()
	}

	DescribeTable("should be reproducible",
		func(name string) {
			first := narrate(name)
			Expect(first).To(ContainSubstring("msg=access"))
			Expect(first).To(ContainSubstring("msg=summary"))
			Expect(first).ToNot(ContainSubstring("time="))
			Expect(narrate(name)).To(Equal(first))
		},
		Entry("two-list", "linux"),
		Entry("aging", "macos"),
		Entry("working set", "windows"),
	)

	It("should announce phases", func() {
		Expect(narrate("linux")).To(ContainSubstring("msg=phase run=demo policy=twolist demo=linux index=5 accesses=6"))
	})

	It("should warn about dropped accesses", func() {
		var buf bytes.Buffer
		runner, err := sim.New(sim.Config{
			Kind:     pagereplace.KindAging,
			Capacity: 1,
			Logger:   sim.NewLogger(&buf, slog.LevelWarn),
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(runner.Run(context.Background(), trace.Reads(1, 2))).To(Succeed())

		Expect(buf.String()).To(HavePrefix("level=WARN msg=access"))
		Expect(buf.String()).To(ContainSubstring(`outcome=dropped`))
	})
})

var _ = Describe("Describe", func() {
	It("should mark referenced and modified units", func() {
		twoList, err := pagereplace.NewTwoList[int](5)
		Expect(err).ToNot(HaveOccurred())
		twoList.AccessPage(1, false)
		twoList.AccessPage(1, false)
		twoList.AccessPage(2, false)
		Expect(sim.Describe(twoList)).To(Equal("active: [] | inactive: [2 1*] | free: 3/5"))

		aging, err := pagereplace.NewAging[int](5)
		Expect(err).ToNot(HaveOccurred())
		aging.AccessPage(1, true)
		Expect(sim.Describe(aging)).To(Equal("active: [1m] | inactive: [] | free: 4/5"))
	})
})

var _ = DescribeTable("ParseLevel",
	func(input string, want slog.Level) {
		level, err := sim.ParseLevel(input)
		Expect(err).ToNot(HaveOccurred())
		Expect(level).To(Equal(want))
	},
	Entry("debug", "debug", slog.LevelDebug),
	Entry("default", "", slog.LevelInfo),
	Entry("info", "INFO", slog.LevelInfo),
	Entry("warning", " Warning ", slog.LevelWarn),
	Entry("error", "ERROR", slog.LevelError),
)

var _ = It("should reject unknown levels", func() {
	_, err := sim.ParseLevel("verbose")
	Expect(err).To(MatchError(sim.ErrUnknownLevel))
	Expect(err).To(MatchError(`unknown log level: "verbose"`))
})
