// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/choria-io/hcpfix/model"
	"github.com/choria-io/hcpfix/model/modelmocks"
)

var _ = Describe("DirectorySessionStore", func() {
	var (
		mockctl *gomock.Controller
		logger  *modelmocks.MockLogger
		tempDir string
		store   *DirectorySessionStore
	)

	BeforeEach(func() {
		mockctl = gomock.NewController(GinkgoT())
		logger = modelmocks.NewLogger(mockctl)
		tempDir = filepath.Join(GinkgoT().TempDir(), "events")

		var err error
		store, err = NewDirectorySessionStore(tempDir, logger, logger)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		mockctl.Finish()
	})

	Describe("NewDirectorySessionStore", func() {
		It("Should require a directory", func() {
			_, err := NewDirectorySessionStore("", logger, logger)
			Expect(err).To(MatchError("session directory path cannot be empty"))
		})

		It("Should create a clean absolute path", func() {
			s, err := NewDirectorySessionStore("./relative/../path", logger, logger)
			Expect(err).ToNot(HaveOccurred())
			Expect(filepath.IsAbs(s.Directory())).To(BeTrue())
			Expect(filepath.Base(s.Directory())).To(Equal("path"))
		})
	})

	Describe("StartSession", func() {
		It("Should create the directory and write a start event", func() {
			Expect(tempDir).ToNot(BeADirectory())
			Expect(store.StartSession("hcp-icafix")).To(Succeed())
			Expect(tempDir).To(BeADirectory())

			files, err := filepath.Glob(filepath.Join(tempDir, "*.event"))
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(HaveLen(1))
		})
	})

	Describe("RecordEvent", func() {
		BeforeEach(func() {
			Expect(store.StartSession("hcp-icafix")).To(Succeed())
		})

		It("Should write events as JSON files named by event id", func() {
			event := completedEvent("task1", 0, nil)
			Expect(store.RecordEvent(event)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tempDir, event.EventID+".event"))
			Expect(err).ToNot(HaveOccurred())

			var loaded model.ExecutionEvent
			Expect(json.Unmarshal(data, &loaded)).To(Succeed())
			Expect(loaded.Name).To(Equal("task1"))
			Expect(loaded.Command).To(Equal(model.Command{"hcp_fix", "in.nii.gz"}))
		})

		It("Should fail when the directory does not exist", func() {
			Expect(os.RemoveAll(tempDir)).To(Succeed())
			err := store.RecordEvent(completedEvent("task1", 0, nil))
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})

		DescribeTable("Should reject event ids that are not ksuids",
			func(id string) {
				event := completedEvent("task1", 0, nil)
				event.EventID = id

				err := store.RecordEvent(event)
				Expect(err).To(MatchError(ContainSubstring("invalid event ID")))
			},
			Entry("traversal", "../../etc/passwd"),
			Entry("absolute", "/tmp/event"),
			Entry("dot", "."),
			Entry("empty", ""),
		)
	})

	Describe("AllEvents", func() {
		It("Should return an empty list when the directory does not exist", func() {
			events, err := store.AllEvents()
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("Should read events back sorted by event id", func() {
			Expect(store.StartSession("hcp-icafix")).To(Succeed())
			for i := range 3 {
				Expect(store.RecordEvent(completedEvent(fmt.Sprintf("task%d", i), 0, nil))).To(Succeed())
			}

			events, err := store.AllEvents()
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(4))
			Expect(events).To(ContainElement(BeAssignableToTypeOf(&model.SessionStartEvent{})))

			for i := 1; i < len(events); i++ {
				Expect(events[i-1].SessionEventID() < events[i].SessionEventID()).To(BeTrue())
			}
		})

		It("Should skip corrupted and unknown event files", func() {
			Expect(store.StartSession("hcp-icafix")).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tempDir, "corrupt.event"), []byte("not json"), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tempDir, "other.event"), []byte(`{"protocol":"other"}`), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644)).To(Succeed())

			events, err := store.AllEvents()
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(1))
		})
	})

	Describe("StopSession", func() {
		It("Should summarize and optionally remove the directory", func() {
			Expect(store.StartSession("hcp-icafix")).To(Succeed())
			Expect(store.RecordEvent(completedEvent("task1", 2, fmt.Errorf("exit 2")))).To(Succeed())

			summary, err := store.StopSession(false)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.FailedCommands).To(Equal(1))
			Expect(tempDir).To(BeADirectory())

			events, err := store.EventsForCommand("task1")
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(1))

			_, err = store.StopSession(true)
			Expect(err).ToNot(HaveOccurred())
			Expect(tempDir).ToNot(BeADirectory())
		})
	})
})
