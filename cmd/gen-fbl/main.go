// Command gen-fbl writes a demo behavior tree definition and a few recorded
// runs of it as .fbl trace files, for trying out btview.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/aretw0/btlib/internal/compiler"
	"github.com/aretw0/btlib/internal/fbl"
	"github.com/aretw0/btlib/pkg/domain"
)

const definition = `<root>
  <BehaviorTree ID="Door">
    <Fallback>
      <Condition ID="IsOpen"/>
      <Sequence>
        <Action ID="Unlock"/>
        <Action ID="Open"/>
      </Sequence>
    </Fallback>
  </BehaviorTree>
</root>
`

// Ids assigned by the parser to the demo definition.
const (
	fallbackID = 100
	isOpenID   = 1000
	sequenceID = 1001
	unlockID   = 10010
	openID     = 10011
)

func main() {
	targetDir := "examples/door"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}
	runs := 3

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}
	fmt.Printf("Generating demo runs in: %s\n", targetDir)

	check(os.WriteFile(filepath.Join(targetDir, "door.xml"), []byte(definition), 0644))
	tree, err := compiler.NewParser().Parse([]byte(definition))
	check(err)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < runs; i++ {
		buf, err := fbl.EncodeFile(tree, tick(rng))
		check(err)
		path := filepath.Join(targetDir, fmt.Sprintf("run-%d.fbl", i+1))
		check(os.WriteFile(path, buf, 0644))
		fmt.Println("  wrote", path)
	}

	fmt.Println("Done. Try: btview coverage", filepath.Join(targetDir, "*.fbl"))
}

// tick simulates one tick of the door tree: the door is either already open
// or gets unlocked and opened, and unlocking may fail.
func tick(rng *rand.Rand) []domain.Event {
	ev := func(id domain.NodeID, s domain.Status) domain.Event {
		return domain.Event{NodeID: id, Status: s}
	}
	events := []domain.Event{
		ev(fallbackID, domain.StatusRunning),
		ev(isOpenID, domain.StatusRunning),
	}
	if rng.IntN(3) == 0 {
		return append(events,
			ev(isOpenID, domain.StatusSuccess),
			ev(fallbackID, domain.StatusSuccess),
		)
	}
	events = append(events,
		ev(isOpenID, domain.StatusFailure),
		ev(sequenceID, domain.StatusRunning),
		ev(unlockID, domain.StatusRunning),
	)
	if rng.IntN(4) == 0 {
		return append(events,
			ev(unlockID, domain.StatusFailure),
			ev(sequenceID, domain.StatusFailure),
			ev(fallbackID, domain.StatusFailure),
		)
	}
	return append(events,
		ev(unlockID, domain.StatusSuccess),
		ev(openID, domain.StatusRunning),
		ev(openID, domain.StatusSuccess),
		ev(sequenceID, domain.StatusSuccess),
		ev(fallbackID, domain.StatusSuccess),
	)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
